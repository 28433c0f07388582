package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/thanhpk/randstr"

	"github.com/satdesk/satdesk-daemon/internal/core/domain"
	"github.com/satdesk/satdesk-daemon/pkg/crypter"
	"github.com/satdesk/satdesk-daemon/pkg/protocol"
)

// PriceSource abstracts the market price feed used to resolve market
// priced orders at take time.
type PriceSource interface {
	GetPrice(ctx context.Context, fiatCode string) (decimal.Decimal, error)
}

// BrokerService is the domain controller for envelopes addressed to the
// broker: it authenticates them, drives order transitions and produces the
// reply to send back.
type BrokerService interface {
	PubKey() string
	HandleEnvelope(
		ctx context.Context, env protocol.Envelope,
	) (*protocol.Message, error)
	ExpireOrders(ctx context.Context, now time.Time) (int, error)
}

type brokerService struct {
	keyPair           *crypter.KeyPair
	orderRepository   domain.OrderRepository
	disputeRepository domain.DisputeRepository
	userRepository    domain.UserRepository
	priceSource       PriceSource
	orderTTL          time.Duration
	minAmount         int64
	maxAmount         int64
}

// NewBrokerService returns the broker controller. Policy values (order
// TTL, tradeable amount caps) come from config at the call site.
func NewBrokerService(
	keyPair *crypter.KeyPair,
	orderRepository domain.OrderRepository,
	disputeRepository domain.DisputeRepository,
	userRepository domain.UserRepository,
	priceSource PriceSource,
	orderTTL time.Duration,
	minAmount, maxAmount int64,
) (BrokerService, error) {
	if keyPair == nil {
		return nil, crypter.ErrInvalidPrivKey
	}
	return &brokerService{
		keyPair:           keyPair,
		orderRepository:   orderRepository,
		disputeRepository: disputeRepository,
		userRepository:    userRepository,
		priceSource:       priceSource,
		orderTTL:          orderTTL,
		minAmount:         minAmount,
		maxAmount:         maxAmount,
	}, nil
}

func (b *brokerService) PubKey() string {
	return b.keyPair.PubKey()
}

// HandleEnvelope verifies and unpacks one received envelope and dispatches
// the message to the matching handler. An envelope that fails
// authentication is dropped with an error and never answered; a message
// that fails a business rule is answered with a cant-do reply.
func (b *brokerService) HandleEnvelope(
	ctx context.Context, env protocol.Envelope,
) (*protocol.Message, error) {
	var key *crypter.Secret
	if env.Encrypted() {
		var err error
		key, err = crypter.ConversationKey(b.keyPair, env.Sender, nil)
		if err != nil {
			return nil, err
		}
		defer key.Zero()
	}

	msg, err := protocol.OpenEnvelope(env, b.PubKey(), key)
	if err != nil {
		log.WithError(err).WithField("sender", env.Sender).
			Warn("dropping envelope")
		return nil, err
	}

	if msg.TradeIndex != nil {
		if reply := b.guardTradeIndex(ctx, env.Sender, msg); reply != nil {
			return reply, nil
		}
	}

	switch msg.Action {
	case protocol.ActionNewOrder:
		return b.newOrder(ctx, env.Sender, msg)
	case protocol.ActionTakeSell, protocol.ActionTakeBuy:
		return b.takeOrder(ctx, env.Sender, msg)
	case protocol.ActionAddInvoice:
		return b.addInvoice(ctx, env.Sender, msg)
	case protocol.ActionFiatSent, protocol.ActionRelease, protocol.ActionCancel:
		return b.progressOrder(ctx, env.Sender, msg)
	case protocol.ActionDispute:
		return b.openDispute(ctx, env.Sender, msg)
	case protocol.ActionAdminTakeDispute:
		return b.takeDispute(ctx, env.Sender, msg)
	case protocol.ActionAdminSettle, protocol.ActionAdminCancel:
		return b.resolveDispute(ctx, env.Sender, msg)
	case protocol.ActionRateUser:
		return b.rateUser(ctx, env.Sender, msg)
	default:
		return cantDo(msg, protocol.ReasonInvalidParameters), nil
	}
}

// guardTradeIndex enforces the per-user monotonic trade index. It returns
// a non-nil reply when the message must be refused.
func (b *brokerService) guardTradeIndex(
	ctx context.Context, sender string, msg *protocol.Message,
) *protocol.Message {
	if _, err := b.userRepository.GetOrCreateUser(ctx, sender); err != nil {
		return cantDo(msg, reasonFor(err))
	}
	err := b.userRepository.UpdateUser(ctx, sender,
		func(u *domain.User) (*domain.User, error) {
			if err := u.UpdateTradeIndex(*msg.TradeIndex); err != nil {
				return nil, err
			}
			return u, nil
		},
	)
	if err != nil {
		return cantDo(msg, reasonFor(err))
	}
	return nil
}

func (b *brokerService) newOrder(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	wire := msg.Payload.Order

	kind, err := domain.ParseKind(wire.Kind)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}
	if wire.Amount > 0 && (wire.Amount < b.minAmount || wire.Amount > b.maxAmount) {
		return cantDo(msg, protocol.ReasonOutOfRangeSatsAmount), nil
	}

	order, err := domain.NewOrder(domain.NewOrderOpts{
		Kind:          kind,
		FiatCode:      wire.FiatCode,
		FiatAmount:    wire.FiatAmount,
		MinAmount:     wire.MinAmount,
		MaxAmount:     wire.MaxAmount,
		Amount:        wire.Amount,
		PaymentMethod: wire.PaymentMethod,
		Premium:       wire.Premium,
		MakerPubkey:   sender,
		EventID:       randstr.Hex(32),
		CreatedAt:     time.Now(),
		TTL:           b.orderTTL,
	})
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}
	if err := b.orderRepository.AddOrder(ctx, order); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order":  order.ID,
		"kind":   order.Kind,
		"fiat":   order.FiatCode,
		"amount": order.Amount,
	}).Info("order published")

	m := protocol.NewMessage(
		&order.ID, msg.RequestID, nil, protocol.ActionNewOrder,
		&protocol.Payload{Order: order.ToWire()},
	)
	return &m, nil
}

func (b *brokerService) takeOrder(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	order, err := b.orderRepository.GetOrder(ctx, *msg.ID)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	fiatAmount := order.FiatAmount
	if msg.Payload != nil && msg.Payload.Amount != nil {
		fiatAmount = *msg.Payload.Amount
	}

	// market priced orders get their sats amount pinned at take time
	var satsAmount int64
	if order.Amount == 0 {
		price, err := b.priceSource.GetPrice(ctx, order.FiatCode)
		if err != nil {
			return cantDo(msg, protocol.ReasonInvalidFiatCurrency), nil
		}
		satsAmount, err = domain.ResolveAmount(fiatAmount, price, order.Premium)
		if err != nil {
			return cantDo(msg, reasonFor(err)), nil
		}
		if satsAmount < b.minAmount || satsAmount > b.maxAmount {
			return cantDo(msg, protocol.ReasonOutOfRangeSatsAmount), nil
		}
	}

	var updated *domain.Order
	err = b.orderRepository.UpdateOrder(ctx, order.ID,
		func(o *domain.Order) (*domain.Order, error) {
			next, err := domain.Apply(*o, domain.Transition{
				Action:     msg.Action,
				Actor:      domain.Actor{Role: domain.RoleTaker, Pubkey: sender},
				Now:        time.Now(),
				Amount:     satsAmount,
				FiatAmount: fiatAmount,
			})
			if err != nil {
				return nil, err
			}
			updated = next
			return next, nil
		},
	)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	log.WithFields(log.Fields{
		"order":  updated.ID,
		"status": updated.Status,
	}).Info("order taken")

	action := protocol.ActionWaitingBuyerInvoice
	if updated.Status == domain.StatusWaitingPayment {
		action = protocol.ActionWaitingSellerToPay
	}
	return reply(msg, action, updated), nil
}

func (b *brokerService) addInvoice(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	updated, err := b.applyForSender(ctx, sender, msg, domain.Transition{
		Action:  protocol.ActionAddInvoice,
		Invoice: msg.Payload.PaymentRequest.Invoice,
	})
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}
	return reply(msg, protocol.ActionBuyerInvoiceAccepted, updated), nil
}

func (b *brokerService) progressOrder(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	var nextTrade domain.Transition
	nextTrade.Action = msg.Action
	if msg.Payload != nil && msg.Payload.NextTrade != nil {
		nextTrade.NextTradePubkey = msg.Payload.NextTrade.Pubkey
		nextTrade.NextTradeIndex = msg.Payload.NextTrade.Index
	}

	updated, err := b.applyForSender(ctx, sender, msg, nextTrade)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	var action protocol.Action
	switch msg.Action {
	case protocol.ActionFiatSent:
		action = protocol.ActionFiatSentOk
	case protocol.ActionRelease:
		action = protocol.ActionReleased
	default:
		if updated.Status.IsTerminal() {
			action = protocol.ActionCanceled
		} else {
			action = protocol.ActionCoopCancelInitiatedByYou
		}
	}
	return reply(msg, action, updated), nil
}

func (b *brokerService) openDispute(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	order, err := b.orderRepository.GetOrder(ctx, *msg.ID)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	dispute, err := domain.NewDispute(order, sender, time.Now())
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	_, err = b.applyForSender(ctx, sender, msg, domain.Transition{
		Action:    protocol.ActionDispute,
		DisputeID: &dispute.ID,
	})
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}
	if err := b.disputeRepository.AddDispute(ctx, dispute); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order":   order.ID,
		"dispute": dispute.ID,
	}).Info("dispute opened")

	token, err := dispute.TokenFor(order, sender)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}
	return protocolMessage(msg, protocol.ActionDisputeInitiatedByYou,
		&protocol.Payload{
			Dispute: &protocol.DisputeInfo{ID: dispute.ID, Token: &token},
		},
	), nil
}

// requireSolver refuses senders without the solver or admin flag. It
// returns a non-nil reply when the message must be refused.
func (b *brokerService) requireSolver(
	ctx context.Context, sender string, msg *protocol.Message,
) *protocol.Message {
	user, err := b.userRepository.GetUser(ctx, sender)
	if err != nil || (!user.IsSolver && !user.IsAdmin) {
		return cantDo(msg, protocol.ReasonIsNotYourDispute)
	}
	return nil
}

// takeDispute assigns an initiated dispute to the sending solver. The
// message id references the dispute.
func (b *brokerService) takeDispute(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	if refusal := b.requireSolver(ctx, sender, msg); refusal != nil {
		return refusal, nil
	}

	err := b.disputeRepository.UpdateDispute(ctx, *msg.ID,
		func(d *domain.Dispute) (*domain.Dispute, error) {
			if err := d.Take(sender, time.Now()); err != nil {
				return nil, err
			}
			return d, nil
		},
	)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	log.WithFields(log.Fields{
		"dispute": *msg.ID,
		"solver":  sender,
	}).Info("dispute taken")

	return protocolMessage(msg, protocol.ActionAdminTookDispute,
		&protocol.Payload{Dispute: &protocol.DisputeInfo{ID: *msg.ID}},
	), nil
}

// resolveDispute closes the dispute opened for the order the message
// references, settling the hold invoice to the buyer on admin-settle and
// refunding the seller on admin-cancel.
func (b *brokerService) resolveDispute(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	if refusal := b.requireSolver(ctx, sender, msg); refusal != nil {
		return refusal, nil
	}

	dispute, err := b.disputeRepository.GetDisputeByOrderID(ctx, *msg.ID)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}
	if dispute.SolverPubkey != sender {
		return cantDo(msg, protocol.ReasonIsNotYourDispute), nil
	}

	outcome := domain.DisputeSettledToSeller
	replyAction := protocol.ActionAdminCanceled
	if msg.Action == protocol.ActionAdminSettle {
		outcome = domain.DisputeSettledToBuyer
		replyAction = protocol.ActionAdminSettled
	}

	var updatedOrder *domain.Order
	var updatedDispute *domain.Dispute
	err = b.orderRepository.UpdateOrder(ctx, *msg.ID,
		func(o *domain.Order) (*domain.Order, error) {
			nextOrder, nextDispute, err := domain.ResolveDispute(
				*o, *dispute, outcome,
				domain.Actor{Role: domain.RoleBroker, Pubkey: sender},
				time.Now(),
			)
			if err != nil {
				return nil, err
			}
			updatedOrder, updatedDispute = nextOrder, nextDispute
			return nextOrder, nil
		},
	)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}
	err = b.disputeRepository.UpdateDispute(ctx, dispute.ID,
		func(_ *domain.Dispute) (*domain.Dispute, error) {
			return updatedDispute, nil
		},
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order":   updatedOrder.ID,
		"dispute": dispute.ID,
		"outcome": outcome,
	}).Info("dispute resolved")

	return reply(msg, replyAction, updatedOrder), nil
}

func (b *brokerService) rateUser(
	ctx context.Context, sender string, msg *protocol.Message,
) (*protocol.Message, error) {
	order, err := b.orderRepository.GetOrder(ctx, *msg.ID)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	err = b.orderRepository.UpdateOrder(ctx, order.ID,
		func(o *domain.Order) (*domain.Order, error) {
			if err := o.RecordRating(sender); err != nil {
				return nil, err
			}
			return o, nil
		},
	)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	rating := *msg.Payload.RatingUser
	counterparty := order.CounterpartyPubkey(sender)
	if _, err := b.userRepository.GetOrCreateUser(ctx, counterparty); err != nil {
		return nil, err
	}
	err = b.userRepository.UpdateUser(ctx, counterparty,
		func(u *domain.User) (*domain.User, error) {
			if err := u.UpdateRating(rating); err != nil {
				return nil, err
			}
			return u, nil
		},
	)
	if err != nil {
		return cantDo(msg, reasonFor(err)), nil
	}

	return protocolMessage(msg, protocol.ActionRateReceived,
		&protocol.Payload{RatingUser: &rating},
	), nil
}

// applyForSender resolves the sender's role on the order and runs one
// transition through the repository.
func (b *brokerService) applyForSender(
	ctx context.Context, sender string, msg *protocol.Message,
	tr domain.Transition,
) (*domain.Order, error) {
	if tr.Action == "" {
		tr.Action = msg.Action
	}
	tr.Now = time.Now()

	var updated *domain.Order
	err := b.orderRepository.UpdateOrder(ctx, *msg.ID,
		func(o *domain.Order) (*domain.Order, error) {
			role := domain.RoleTaker
			if sender == o.MakerPubkey {
				role = domain.RoleMaker
			}
			tr.Actor = domain.Actor{Role: role, Pubkey: sender}

			next, err := domain.Apply(*o, tr)
			if err != nil {
				return nil, err
			}
			updated = next
			return next, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ExpireOrders sweeps the order book for pre-active orders past their
// expiry time and tears them down. It returns how many were expired.
func (b *brokerService) ExpireOrders(
	ctx context.Context, now time.Time,
) (int, error) {
	orders, err := b.orderRepository.GetExpirableOrders(ctx, now.Unix())
	if err != nil {
		return 0, err
	}

	count := 0
	for _, order := range orders {
		err := b.orderRepository.UpdateOrder(ctx, order.ID,
			func(o *domain.Order) (*domain.Order, error) {
				return domain.Expire(*o, now)
			},
		)
		if err != nil {
			log.WithError(err).WithField("order", order.ID).
				Warn("skipping order expiration")
			continue
		}
		count++
	}

	if count > 0 {
		log.WithField("count", count).Info("expired orders")
	}
	return count, nil
}

func reply(
	msg *protocol.Message, action protocol.Action, order *domain.Order,
) *protocol.Message {
	return protocolMessage(msg, action, &protocol.Payload{Order: order.ToWire()})
}

func protocolMessage(
	msg *protocol.Message, action protocol.Action, payload *protocol.Payload,
) *protocol.Message {
	m := protocol.NewMessage(msg.ID, msg.RequestID, nil, action, payload)
	return &m
}

func cantDo(msg *protocol.Message, reason protocol.CantDoReason) *protocol.Message {
	m := protocol.NewCantDo(msg.ID, msg.RequestID, reason)
	return &m
}
