package common

import (
	"fmt"
)

// ColorYellow is the accent color used on all payment embeds
const ColorYellow = 0xF1C40F

// AmountString renders a sat amount with its BTC equivalent
func AmountString(sats int64) string {
	btc := float64(sats) / 100_000_000
	return fmt.Sprintf("%d Satoshis / ฿%.8g", sats, btc)
}
