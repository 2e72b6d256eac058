package kis

import (
	"strings"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// This file is the single place where raw KIS failures become
// kind-tagged errors. Nothing outside the adapter inspects broker
// message text.

// Broker rejections that retrying cannot fix: insufficient balance,
// invalid quantity, order not possible, non-trading day, market
// closed / not yet open, trading halted.
var terminalKeywords = []string{
	"잔고",
	"부족",
	"수량",
	"불가",
	"영업일",
	"장마감",
	"장종료",
	"장시작전",
	"매매거래정지",
}

// Transport-level failures worth resubmitting.
var retryableKeywords = []string{
	"connection",
	"timeout",
	"timed out",
	"remote",
	"disconnect",
	"eof",
	"reset by peer",
	"temporary failure",
}

// classifyMessage maps a KIS rejection message (rt_cd != "0") to an
// error kind.
func classifyMessage(msg string) domain.ErrorKind {
	for _, kw := range terminalKeywords {
		if strings.Contains(msg, kw) {
			return domain.KindTerminal
		}
	}
	lower := strings.ToLower(msg)
	for _, kw := range retryableKeywords {
		if strings.Contains(lower, kw) {
			return domain.KindRetryable
		}
	}
	// Unrecognized rejection: give it its attempts.
	return domain.KindRetryable
}

// classifyTransport maps an HTTP/transport error to an error kind.
// Transport failures are always retryable.
func classifyTransport(op string, err error) error {
	return domain.NewError(domain.KindRetryable, op, err)
}

// rejectionError builds the kind-tagged error for a broker rejection.
func rejectionError(op, msgCd, msg string) error {
	return domain.Errorf(classifyMessage(msg), op, "broker rejected request [%s]: %s", msgCd, msg)
}
