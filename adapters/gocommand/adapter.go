package gocommand

import (
	"context"
	"fmt"
	"strings"

	cardcommand "github.com/goliatone/go-card-management/command"
	"github.com/goliatone/go-card-management/core"
	cardquery "github.com/goliatone/go-card-management/query"
	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) register(handler any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(handler)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors every registered card command into the go-job
// queue registry when the registry initializes.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

// Dispatch validates the message contract before handing it to the
// go-command dispatcher.
func Dispatch[T any](ctx context.Context, msg T) error {
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	if err := ValidateMessageContract(msg); err != nil {
		var zero R
		return zero, err
	}
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	if err := adapter.register(cmd); err != nil {
		return nil, err
	}
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...), nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	if err := adapter.register(qry); err != nil {
		return nil, err
	}
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...), nil
}

// Subscriptions groups the dispatcher subscriptions created for the card
// handlers so hosts can detach them together.
type Subscriptions struct {
	items []commanddispatcher.Subscription
}

func (s *Subscriptions) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *Subscriptions) Unsubscribe() {
	if s == nil {
		return
	}
	for _, item := range s.items {
		if item != nil {
			item.Unsubscribe()
		}
	}
	s.items = nil
}

func (s *Subscriptions) add(sub commanddispatcher.Subscription, err error) error {
	if err != nil {
		return err
	}
	s.items = append(s.items, sub)
	return nil
}

// RegisterCardHandlers registers and subscribes every card command and
// query against directory. events is optional; without it the analytics
// history query is not registered. On error every subscription made so far
// is released.
func RegisterCardHandlers(
	adapter *RegistryAdapter,
	directory *core.CardDirectory,
	events core.AnalyticsEventReader,
	runnerOpts ...runner.Option,
) (*Subscriptions, error) {
	if directory == nil {
		return nil, fmt.Errorf("gocommand: card directory is required")
	}
	subs := &Subscriptions{}
	steps := []func() error{
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.ActivateCardMessage](adapter, cardcommand.NewActivateCardCommand(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.SuspendCardMessage](adapter, cardcommand.NewSuspendCardCommand(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.RevokeCardMessage](adapter, cardcommand.NewRevokeCardCommand(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.LogInMessage](adapter, cardcommand.NewLogInCommand(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.LogOutMessage](adapter, cardcommand.NewLogOutCommand(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.ConfigurePushProvisioningMessage](
				adapter,
				cardcommand.NewConfigurePushProvisioningCommand(directory, directory),
				runnerOpts...,
			))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.ProvisionCardMessage](adapter, cardcommand.NewProvisionCardCommand(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[cardcommand.CopyPanMessage](adapter, cardcommand.NewCopyPanCommand(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[cardquery.GetCardsMessage, []*core.Card](adapter, cardquery.NewGetCardsQuery(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[cardquery.GetCardMessage, *core.Card](adapter, cardquery.NewGetCardQuery(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[cardquery.GetDigitizationStateMessage, core.DigitizationData](adapter, cardquery.NewGetDigitizationStateQuery(directory), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[cardquery.GetSecureFieldMessage, cardquery.SecureFieldView](adapter, cardquery.NewGetSecureFieldQuery(directory), runnerOpts...))
		},
	}
	if events != nil {
		steps = append(steps, func() error {
			return subs.add(RegisterAndSubscribeQuery[cardquery.ListAnalyticsEventsMessage, core.AnalyticsEventPage](adapter, cardquery.NewListAnalyticsEventsQuery(events), runnerOpts...))
		})
	}
	for _, step := range steps {
		if err := step(); err != nil {
			subs.Unsubscribe()
			return nil, err
		}
	}
	return subs, nil
}
