package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	TxTypeDeposit = "DEPOSIT"
	TxTypeRefund  = "REFUND"
	TxTypeCharge  = "CHARGE"
)

// Generation stages, in pipeline order. Progress stores the stage a text is
// currently in; empty means not yet picked up by the driver.
const (
	StageQuery       = "query"
	StageSelecting   = "selecting"
	StageStructuring = "structuring"
	StageWriting     = "writing"
	StageCompleted   = "completed"
	StageFailed      = "failed"
	StageCancelled   = "cancelled"
)

const (
	BlogStatusDraft     = "DRAFT"
	BlogStatusPublished = "PUBLISHED"
	BlogStatusArchived  = "ARCHIVED"
)

const (
	TextTypeArticle     = "article"
	TextTypeBlogPost    = "blog_post"
	TextTypeProduct     = "product_description"
	TextTypeLandingPage = "landing_page"
)

// SignedAmount maps a transaction type and positive magnitude to the delta
// applied to the balance: deposits and refunds credit, charges debit.
func SignedAmount(txType string, amountCents int64) int64 {
	if txType == TxTypeCharge {
		return -amountCents
	}
	return amountCents
}

// Price per 1000 target characters, in cents.
var ratePerThousandCents = map[string]int64{
	TextTypeArticle:     800,
	TextTypeBlogPost:    700,
	TextTypeProduct:     900,
	TextTypeLandingPage: 1200,
}

const defaultRatePerThousandCents = 800

// PriceFor returns the price in cents for one text of the given type and
// target character length. Lengths are billed in started thousands.
func PriceFor(textType string, length int) int64 {
	rate, ok := ratePerThousandCents[textType]
	if !ok {
		rate = defaultRatePerThousandCents
	}
	thousands := int64(length) / 1000
	if int64(length)%1000 != 0 || thousands == 0 {
		thousands++
	}
	return rate * thousands
}

func ValidTextType(t string) bool {
	_, ok := ratePerThousandCents[t]
	return ok
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}
