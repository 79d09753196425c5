package constants

// LineKind tags each quote line.
type LineKind string

// Stable values (sent as-is over gRPC and written into exports).
const (
	LineProduct   LineKind = "PRODUCT"
	LineMarkup    LineKind = "MARKUP"    // installation markup tier
	LineTransport LineKind = "TRANSPORT" // round trip from the configured origin
)

// ItemStatus is the outcome of pricing one requested item.
type ItemStatus string

const (
	ItemPriced             ItemStatus = "PRICED"
	ItemLookupMiss         ItemStatus = "LOOKUP_MISS"
	ItemNoPrice            ItemStatus = "NO_PRICE"
	ItemMalformedDimension ItemStatus = "MALFORMED_DIMENSION"
)
