package rain

import (
	"math/rand"
	"regexp"

	"github.com/bwmarrin/discordgo"
)

var roleMentionPattern = regexp.MustCompile(`<@&(\d+)>`)

// parseRoleMentions extracts role IDs from a string of role mentions
func parseRoleMentions(s string) []string {
	var ids []string
	for _, m := range roleMentionPattern.FindAllStringSubmatch(s, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

// eligibleRecipients filters guild members down to the rain pool:
// humans other than the invoker, restricted to the given roles when any
// were named.
func eligibleRecipients(members []*discordgo.Member, invokerID string, roleIDs []string) []*discordgo.User {
	var pool []*discordgo.User
	for _, m := range members {
		if m.User == nil || m.User.Bot || m.User.ID == invokerID {
			continue
		}
		if len(roleIDs) > 0 && !hasAnyRole(m, roleIDs) {
			continue
		}
		pool = append(pool, m.User)
	}
	return pool
}

func hasAnyRole(m *discordgo.Member, roleIDs []string) bool {
	for _, want := range roleIDs {
		for _, have := range m.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// shufflePool returns the pool in a random draw order
func shufflePool(pool []*discordgo.User) []*discordgo.User {
	shuffled := make([]*discordgo.User, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// payRound draws from the pool in random order without replacement until
// count payments settled or the pool is exhausted. pay reports whether a
// recipient's payment went through; a failed recipient is skipped, not
// retried. Returns the recipients actually paid.
func payRound(pool []*discordgo.User, count int64, pay func(*discordgo.User) bool) []*discordgo.User {
	var paid []*discordgo.User
	for _, recipient := range shufflePool(pool) {
		if int64(len(paid)) >= count {
			break
		}
		if !pay(recipient) {
			continue
		}
		paid = append(paid, recipient)
	}
	return paid
}
