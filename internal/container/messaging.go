package container

import (
	"github.com/samber/do"
	"github.com/serroba/items-api/internal/audit"
	auditstore "github.com/serroba/items-api/internal/audit/store"
	"github.com/serroba/items-api/internal/messaging"
	"go.uber.org/zap"
)

// PublisherGroupPackage provides the item change publisher. Without Options.Events
// events are dropped and Redis is never contacted.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := messaging.NewRedisPublisher(client.Client, logger)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[audit.ItemChanged], error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.Events {
			return messaging.NopPublish[audit.ItemChanged](), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[audit.ItemChanged](group.Publisher(), audit.TopicItemChanged), nil
	})
}

// ConsumerGroupPackage provides the audit consumers reading item change events.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisSubscriber(client.Client, opts.ConsumerGroup, logger)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			audit.TopicItemChanged,
			audit.NewHandler(auditstore.NewLog(logger)),
			logger,
		))

		return group, nil
	})
}
