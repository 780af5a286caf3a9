package market

import (
	"fmt"

	"fxmarket/internal/currency"
)

// line wraps payload in the engine's wire log-line format:
// <MarketName>|YYYY:MM:DD:HH:MM:SS:mmm|<payload>
func line(market, payload string) string {
	return fmt.Sprintf("%s|%s|%s", market, nowStamp(), payload)
}

func initLine(market string, initial map[currency.Kind]float32) string {
	payload := fmt.Sprintf(
		"MARKET_INITIALIZATION\nBASE: %v\nA: %v\nB: %v\nC: %v\nEND_MARKET_INITIALIZATION",
		initial[currency.BASE], initial[currency.A], initial[currency.B], initial[currency.C],
	)
	return line(market, payload)
}

func lockBuyLine(market, trader string, k currency.Kind, q, bid float32, token string, err error) string {
	body := fmt.Sprintf("LOCK_BUY-%s-KIND_TO_BUY:%s-QUANTITY_TO_BUY:%v-BID:%v", trader, k, q, bid)
	if err != nil {
		return line(market, body+"-ERROR")
	}
	return line(market, fmt.Sprintf("%s-TOKEN:%s", body, token))
}

func lockSellLine(market, trader string, k currency.Kind, q, offer float32, token string, err error) string {
	body := fmt.Sprintf("LOCK_SELL-%s-KIND_TO_SELL:%s-QUANTITY_TO_SELL:%v-OFFER:%v", trader, k, q, offer)
	if err != nil {
		return line(market, body+"-ERROR")
	}
	return line(market, fmt.Sprintf("%s-TOKEN:%s", body, token))
}

func buySettleLine(market, token string, ok bool) string {
	if ok {
		return line(market, fmt.Sprintf("BUY-TOKEN:%s-OK", token))
	}
	return line(market, fmt.Sprintf("BUY-TOKEN:%s-ERROR", token))
}

func sellSettleLine(market, token string, ok bool) string {
	if ok {
		return line(market, fmt.Sprintf("SELL-TOKEN:%s-OK", token))
	}
	return line(market, fmt.Sprintf("SELL-TOKEN:%s-ERROR", token))
}
