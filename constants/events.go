package constants

// EventKind classifies the structured events a quote session records.
type EventKind string

const (
	EventSessionStart         EventKind = "SESSION_START"
	EventExtracted            EventKind = "EXTRACTED"
	EventNotRecognized        EventKind = "NOT_RECOGNIZED"
	EventPriced               EventKind = "PRICED"
	EventLookupMiss           EventKind = "LOOKUP_MISS"
	EventNoPrice              EventKind = "NO_PRICE"
	EventMalformedDimension   EventKind = "MALFORMED_DIMENSION"
	EventDefaultHeight        EventKind = "DEFAULT_HEIGHT"
	EventClamped              EventKind = "CLAMPED"
	EventTransportUnavailable EventKind = "TRANSPORT_UNAVAILABLE"
	EventSessionEnd           EventKind = "SESSION_END"
)
