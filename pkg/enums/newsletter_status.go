package enums

import "fmt"

type SubscriberStatus string

const (
	SubscriberStatusActive       SubscriberStatus = "active"
	SubscriberStatusUnsubscribed SubscriberStatus = "unsubscribed"
)

var validSubscriberStatuses = []SubscriberStatus{
	SubscriberStatusActive,
	SubscriberStatusUnsubscribed,
}

func (s SubscriberStatus) IsValid() bool {
	for _, candidate := range validSubscriberStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseSubscriberStatus(value string) (SubscriberStatus, error) {
	for _, candidate := range validSubscriberStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscriber status %q", value)
}
