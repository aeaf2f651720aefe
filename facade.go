package cardmanagement

import (
	"fmt"

	cardcommand "github.com/goliatone/go-card-management/command"
	"github.com/goliatone/go-card-management/core"
	cardquery "github.com/goliatone/go-card-management/query"
)

type Commands struct {
	ActivateCard              *cardcommand.ActivateCardCommand
	SuspendCard               *cardcommand.SuspendCardCommand
	RevokeCard                *cardcommand.RevokeCardCommand
	LogIn                     *cardcommand.LogInCommand
	LogOut                    *cardcommand.LogOutCommand
	ConfigurePushProvisioning *cardcommand.ConfigurePushProvisioningCommand
	ProvisionCard             *cardcommand.ProvisionCardCommand
	CopyPan                   *cardcommand.CopyPanCommand
}

type Queries struct {
	GetCards             *cardquery.GetCardsQuery
	GetCard              *cardquery.GetCardQuery
	GetDigitizationState *cardquery.GetDigitizationStateQuery
	GetSecureField       *cardquery.GetSecureFieldQuery
	ListAnalyticsEvents  *cardquery.ListAnalyticsEventsQuery
}

// Facade exposes a manager's operations as go-command commands and queries
// sharing one CardDirectory, so a card viewed through a query can be copied
// through a command.
type Facade struct {
	directory *core.CardDirectory
	commands  Commands
	queries   Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	eventReader core.AnalyticsEventReader
}

// WithEventReader enables the ListAnalyticsEvents query.
func WithEventReader(reader core.AnalyticsEventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.eventReader = reader
	}
}

func NewFacade(manager *core.CardManager, opts ...FacadeOption) (*Facade, error) {
	if manager == nil {
		return nil, fmt.Errorf("cardmanagement: card manager is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	directory := core.NewCardDirectory(manager)
	facade := &Facade{directory: directory}
	facade.commands = Commands{
		ActivateCard:              cardcommand.NewActivateCardCommand(directory),
		SuspendCard:               cardcommand.NewSuspendCardCommand(directory),
		RevokeCard:                cardcommand.NewRevokeCardCommand(directory),
		LogIn:                     cardcommand.NewLogInCommand(directory),
		LogOut:                    cardcommand.NewLogOutCommand(directory),
		ConfigurePushProvisioning: cardcommand.NewConfigurePushProvisioningCommand(directory, directory),
		ProvisionCard:             cardcommand.NewProvisionCardCommand(directory),
		CopyPan:                   cardcommand.NewCopyPanCommand(directory),
	}
	facade.queries = Queries{
		GetCards:             cardquery.NewGetCardsQuery(directory),
		GetCard:              cardquery.NewGetCardQuery(directory),
		GetDigitizationState: cardquery.NewGetDigitizationStateQuery(directory),
		GetSecureField:       cardquery.NewGetSecureFieldQuery(directory),
	}
	if cfg.eventReader != nil {
		facade.queries.ListAnalyticsEvents = cardquery.NewListAnalyticsEventsQuery(cfg.eventReader)
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Directory() *core.CardDirectory {
	if f == nil {
		return nil
	}
	return f.directory
}

func (f *Facade) Manager() *core.CardManager {
	if f == nil || f.directory == nil {
		return nil
	}
	return f.directory.Manager()
}
