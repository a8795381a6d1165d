package kafkax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReadyCheck passes when any broker accepts a connection and every named
// topic has partitions on the cluster.
func ReadyCheck(brokers string, topics ...string) func(context.Context) error {
	list := SplitBrokers(brokers)
	return func(ctx context.Context) error {
		if len(list) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}

		var dialErr error
		for _, addr := range list {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				dialErr = errors.Join(dialErr, err)
				continue
			}
			defer conn.Close()

			for _, topic := range topics {
				if topic == "" {
					continue
				}
				parts, err := conn.ReadPartitions(topic)
				if err != nil {
					return fmt.Errorf("topic %s: %w", topic, err)
				}
				if len(parts) == 0 {
					return fmt.Errorf("topic %s has no partitions", topic)
				}
			}
			return nil
		}
		return dialErr
	}
}
