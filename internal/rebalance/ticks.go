package rebalance

// KRX equity tick-size bands. Limit prices must land on a tick; buys
// round up so the order is never priced below the intended level.
var tickBands = []struct {
	upTo      int64 // Exclusive upper bound, 0 = open-ended
	increment int64
}{
	{1_000, 1},
	{5_000, 5},
	{10_000, 10},
	{50_000, 50},
	{100_000, 100},
	{500_000, 500},
	{0, 1_000},
}

// TickIncrement returns the tick size for a price.
func TickIncrement(price int64) int64 {
	for _, band := range tickBands {
		if band.upTo == 0 || price < band.upTo {
			return band.increment
		}
	}
	return 1_000
}

// RoundTick rounds a price up to the next valid tick.
func RoundTick(price int64) int64 {
	if price <= 0 {
		return 0
	}
	inc := TickIncrement(price)
	return (price + inc - 1) / inc * inc
}
