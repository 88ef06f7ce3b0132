package http

import (
	"errors"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"
)

// ActorHeader carries the caller's role for status changes.
const ActorHeader = "X-Actor-Role"

// Handlers groups the use cases the API exposes.
type Handlers struct {
	CreateOrder      commands.CreateOrderCommandHandler
	AssignProvider   commands.AssignProviderCommandHandler
	AdvanceStatus    commands.AdvanceStatusCommandHandler
	CancelOrder      commands.CancelOrderCommandHandler
	CreateReview     commands.CreateReviewCommandHandler
	RegisterProvider commands.RegisterProviderCommandHandler

	GetOrder          queries.GetOrderQueryHandler
	GetOrderHistory   queries.GetOrderHistoryQueryHandler
	ListNotifications queries.ListNotificationsQueryHandler
	GetProviderRating queries.GetProviderRatingQueryHandler
	GetAnalytics      queries.GetAnalyticsQueryHandler
}

// Server adapts HTTP requests to the application use cases.
type Server struct {
	h   Handlers
	log *zap.Logger
}

func NewServer(h Handlers, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{h: h, log: log}
}

// Register mounts the API routes on g, normally the /api/v1 group.
func (s *Server) Register(g *echo.Group) {
	g.POST("/orders", s.CreateOrder)
	g.GET("/orders/:id", s.GetOrder)
	g.GET("/orders/:id/history", s.GetOrderHistory)
	g.POST("/orders/:id/assign", s.AssignProvider)
	g.POST("/orders/:id/status", s.AdvanceStatus)
	g.POST("/orders/:id/cancel", s.CancelOrder)
	g.POST("/orders/:id/reviews", s.CreateReview)
	g.GET("/orders/:id/notifications", s.ListNotifications)

	g.POST("/providers", s.RegisterProvider)
	g.GET("/providers/:id/rating", s.GetProviderRating)

	g.GET("/analytics/revenue", s.RevenueAnalytics)
	g.GET("/analytics/top", s.TopAnalytics)
	g.GET("/analytics/rating", s.RatingAnalytics)
}

// CreateOrder handles POST /orders. A placed order answers 201; an order
// still waiting for a provider answers 202.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req NewOrder
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	draft, err := req.draft()
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), draft)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	code := http.StatusCreated
	status := res.Status.String()
	if res.AwaitingAssignment() {
		code = http.StatusAccepted
		status = queries.DisplayAwaitingAssignment
	}
	return ctx.JSON(code, OrderPlacement{
		OrderID:    res.OrderID.String(),
		Status:     status,
		ProviderID: optionalID(res.ProviderID),
	})
}

// GetOrder handles GET /orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, orderView(o))
}

// GetOrderHistory handles GET /orders/:id/history.
func (s *Server) GetOrderHistory(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetOrderHistoryQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	records, err := s.h.GetOrderHistory.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]HistoryRecord, len(records))
	for i, rec := range records {
		response[i] = HistoryRecord{
			From:  rec.From.String(),
			To:    rec.To.String(),
			Actor: rec.Actor.String(),
			Note:  rec.Note,
			At:    rec.At,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// AssignProvider handles POST /orders/:id/assign, a manual retry for an
// order that is still pending.
func (s *Server) AssignProvider(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewAssignProviderCommand(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.AssignProvider.Handle(ctx.Request().Context(), cmd)
	if errors.Is(err, services.ErrNoEligibleProvider) {
		return ctx.JSON(http.StatusAccepted, OrderPlacement{
			OrderID: id.String(),
			Status:  queries.DisplayAwaitingAssignment,
		})
	}
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, OrderPlacement{
		OrderID:    res.OrderID.String(),
		Status:     res.Status.String(),
		ProviderID: optionalID(res.ProviderID),
		Score:      res.Score,
	})
}

// AdvanceStatus handles POST /orders/:id/status.
func (s *Server) AdvanceStatus(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	actor, err := actorFrom(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var req StatusChange
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewAdvanceStatusCommand(id, actor, target, req.Note)
	if err != nil {
		return s.fail(ctx, err)
	}

	status, err := s.h.AdvanceStatus.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, StatusResult{OrderID: id.String(), Status: status.String()})
}

// CancelOrder handles POST /orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	actor, err := actorFrom(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	// An empty body binds to a cancellation without a reason.
	var req Cancellation
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(id, actor, req.Reason)
	if err != nil {
		return s.fail(ctx, err)
	}

	status, err := s.h.CancelOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, StatusResult{OrderID: id.String(), Status: status.String()})
}

// CreateReview handles POST /orders/:id/reviews.
func (s *Server) CreateReview(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var req NewReview
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCreateReviewCommand(kernel.NewUUID(), id, req.Rating, req.Comment)
	if err != nil {
		return s.fail(ctx, err)
	}

	rv, err := s.h.CreateReview.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := Review{
		ID:        rv.ID().String(),
		OrderID:   rv.OrderID().String(),
		Rating:    rv.Rating(),
		Comment:   rv.Comment(),
		CreatedAt: rv.CreatedAt(),
	}
	if p := rv.ProviderID(); p != nil {
		response.ProviderID = p.String()
	}
	return ctx.JSON(http.StatusCreated, response)
}

// ListNotifications handles GET /orders/:id/notifications.
func (s *Server) ListNotifications(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewListNotificationsQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	requests, err := s.h.ListNotifications.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]Notification, len(requests))
	for i, r := range requests {
		attempts := make([]Attempt, len(r.Attempts))
		for j, a := range r.Attempts {
			attempts[j] = Attempt{
				Channel: string(a.Channel),
				Outcome: string(a.Outcome),
				Error:   a.Error,
				At:      a.At,
			}
		}
		response[i] = Notification{
			ID:          r.ID.String(),
			TemplateKey: string(r.TemplateKey),
			Delivered:   r.Delivered,
			Attempts:    attempts,
			CreatedAt:   r.CreatedAt,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// RegisterProvider handles POST /providers.
func (s *Server) RegisterProvider(ctx echo.Context) error {
	var req NewProvider
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	userID, userErr := parseID("user_id", req.UserID)
	loc, locErr := kernel.NewLocation(req.Location.Country, req.Location.Region, req.Location.City)
	caps, capsErr := provider.NewCapabilitySet(req.Capabilities...)
	if err := errors.Join(userErr, locErr, capsErr); err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewRegisterProviderCommand(
		kernel.NewUUID(), userID, req.BusinessName, loc, caps, req.CapacityPerWeek,
	)
	if err != nil {
		return s.fail(ctx, err)
	}

	p, err := s.h.RegisterProvider.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, Provider{
		ID:           p.ID().String(),
		UserID:       p.UserID().String(),
		BusinessName: p.BusinessName(),
		Location: Location{
			Country: p.Location().Country(),
			Region:  p.Location().Region(),
			City:    p.Location().City(),
		},
		Capabilities:    p.Capabilities().Strings(),
		CapacityPerWeek: p.CapacityPerWeek(),
		Active:          p.IsActive(),
	})
}

// GetProviderRating handles GET /providers/:id/rating.
func (s *Server) GetProviderRating(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetProviderRatingQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	r, err := s.h.GetProviderRating.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, ProviderRating{
		ProviderID:   r.ProviderID.String(),
		BusinessName: r.BusinessName,
		Mean:         r.Mean,
		Count:        r.Count,
	})
}

// RevenueAnalytics handles GET /analytics/revenue?from=&to=.
func (s *Server) RevenueAnalytics(ctx echo.Context) error {
	period, err := periodFrom(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewRevenueAnalyticsQuery(period)
	if err != nil {
		return s.fail(ctx, err)
	}
	return s.analytics(ctx, query)
}

// TopAnalytics handles GET /analytics/top?dimension=&metric=&limit=&from=&to=.
func (s *Server) TopAnalytics(ctx echo.Context) error {
	period, err := periodFrom(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var limit *int
	if err = runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &limit); err != nil {
		return s.fail(ctx, errs.NewValueIsInvalidErrorWithCause("limit", err))
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	query, err := queries.NewTopAnalyticsQuery(
		period,
		services.Dimension(ctx.QueryParam("dimension")),
		services.Metric(ctx.QueryParam("metric")),
		n,
	)
	if err != nil {
		return s.fail(ctx, err)
	}
	return s.analytics(ctx, query)
}

// RatingAnalytics handles GET /analytics/rating?provider_id=&from=&to=.
func (s *Server) RatingAnalytics(ctx echo.Context) error {
	period, err := periodFrom(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	providerID, err := parseID("provider_id", ctx.QueryParam("provider_id"))
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewRatingAnalyticsQuery(period, providerID)
	if err != nil {
		return s.fail(ctx, err)
	}
	return s.analytics(ctx, query)
}

func (s *Server) analytics(ctx echo.Context, query queries.GetAnalyticsQuery) error {
	view, err := s.h.GetAnalytics.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, view)
}

func (r NewOrder) draft() (order.Draft, error) {
	clientID, clientErr := parseID("client_id", r.ClientID)
	designID, designErr := parseID("design_id", r.DesignID)
	supportID, supportErr := parseID("support_id", r.SupportID)
	capability, capErr := provider.NewCapability(r.Capability)
	shipTo, locErr := kernel.NewLocation(r.ShipTo.Country, r.ShipTo.Region, r.ShipTo.City)
	unitPrice, priceErr := kernel.NewMoney(r.UnitPrice)
	custom, customErr := order.NewCustomization(r.Customization)
	contact, contactErr := order.NewContact(r.Contact.Email, r.Contact.Phone, r.Contact.WhatsAppOptIn)

	if err := errors.Join(
		clientErr, designErr, supportErr, capErr, locErr, priceErr, customErr, contactErr,
	); err != nil {
		return order.Draft{}, err
	}

	return order.Draft{
		ClientID:      clientID,
		DesignID:      designID,
		DesignTitle:   r.DesignTitle,
		SupportID:     supportID,
		Capability:    capability,
		ShipTo:        shipTo,
		Quantity:      r.Quantity,
		UnitPrice:     unitPrice,
		Customization: custom,
		Contact:       contact,
	}, nil
}

func pathID(ctx echo.Context) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return parseID("id", id.String())
}

func parseID(name, raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}

// actorFrom reads the caller's role. The matching engine role belongs to
// the service itself and is refused from outside.
func actorFrom(ctx echo.Context) (order.Actor, error) {
	raw := ctx.Request().Header.Get(ActorHeader)
	if raw == "" {
		return order.ActorUnknown, errs.NewValueIsRequiredError(ActorHeader)
	}
	actor, err := order.ParseActor(raw)
	if err != nil {
		return order.ActorUnknown, err
	}
	if actor == order.ActorMatchingEngine {
		return order.ActorUnknown, errs.NewValueIsInvalidErrorWithCause(
			ActorHeader, errors.New("matching_engine is reserved for the service"),
		)
	}
	return actor, nil
}

// periodFrom parses the optional from/to query parameters. Both RFC 3339
// timestamps and plain dates are accepted; dates are read as UTC midnight.
func periodFrom(ctx echo.Context) (services.Period, error) {
	from, fromErr := parseTime("from", ctx.QueryParam("from"))
	to, toErr := parseTime("to", ctx.QueryParam("to"))
	if err := errors.Join(fromErr, toErr); err != nil {
		return services.Period{}, err
	}
	return services.Period{From: from, To: to}, nil
}

func parseTime(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return t, nil
}

func optionalID(id *kernel.UUID) *string {
	if id == nil || id.Validate() != nil {
		return nil
	}
	s := id.String()
	return &s
}
