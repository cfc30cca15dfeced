package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// HealthChecker reports whether the cluster answers metadata requests.
type HealthChecker struct {
	admin *kadm.Client
}

// NewHealthChecker builds a checker on an existing client; it does not own it.
func NewHealthChecker(client *kgo.Client) *HealthChecker {
	return &HealthChecker{admin: kadm.NewClient(client)}
}

// Check returns nil once at least one broker is listed in cluster metadata.
func (h *HealthChecker) Check(ctx context.Context) error {
	brokers, err := h.admin.ListBrokers(ctx)
	if err != nil {
		return fmt.Errorf("list kafka brokers: %w", err)
	}
	if len(brokers) == 0 {
		return errors.New("kafka cluster reports no brokers")
	}
	return nil
}
