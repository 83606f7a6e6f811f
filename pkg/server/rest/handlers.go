package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/server/rest/service"
	"github.com/lintang-b-s/carpoolnav/pkg/util"
)

type RoutingService interface {
	Filters() []string
	ShortestPath(ctx context.Context, src, dst datastructure.Coordinate, filterName, algorithm string) (service.RouteResult, error)
	ShortestPathNodes(ctx context.Context, origin, destination int32, filterName, algorithm string) (service.RouteResult, error)
	CompareAlgorithms(ctx context.Context, origin, destination int32, filterName string) (service.Comparison, error)
	Carpool(ctx context.Context, pedestrian datastructure.Coordinate, car *datastructure.Coordinate,
		dst datastructure.Coordinate, pedestrianFilterName, carFilterName string) (service.CarpoolResult, error)
}

type NavigationHandler struct {
	svc      RoutingService
	validate *validator.Validate
	trans    ut.Translator
}

func NewNavigationHandler(svc RoutingService) *NavigationHandler {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return &NavigationHandler{svc: svc, validate: validate, trans: trans}
}

func NavigatorRouter(r chi.Router, svc RoutingService) {
	handler := NewNavigationHandler(svc)

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Get("/filters", handler.Filters)
			r.Route("/navigations", func(r chi.Router) {
				r.Post("/shortest-path", handler.ShortestPath)
				r.Post("/shortest-path/nodes", handler.ShortestPathNodes)
				r.Post("/compare", handler.Compare)
				r.Post("/carpooling", handler.Carpooling)
			})
		})
	})
}

// bind decodes and validates the request body. It renders the error response and returns false on failure.
func (h *NavigationHandler) bind(w http.ResponseWriter, r *http.Request, data render.Binder) bool {
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return false
	}
	if err := h.validate.Struct(data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return false
	}
	return true
}

// FiltersResponse model info
//
//	@Description	names of the arc filters a request can use
type FiltersResponse struct {
	Filters []string `json:"filters"`
}

func (h *NavigationHandler) Filters(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, FiltersResponse{Filters: h.svc.Filters()})
}

// ShortestPathRequest model info
//
//	@Description	request body for a shortest path query between two coordinates
type ShortestPathRequest struct {
	SrcLat    float64 `json:"src_lat" validate:"required,lt=90,gt=-90"`
	SrcLon    float64 `json:"src_lon" validate:"required,lt=180,gt=-180"`
	DstLat    float64 `json:"dst_lat" validate:"required,lt=90,gt=-90"`
	DstLon    float64 `json:"dst_lon" validate:"required,lt=180,gt=-180"`
	Filter    string  `json:"filter"`
	Algorithm string  `json:"algorithm" validate:"omitempty,oneof=dijkstra bellman-ford"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	return nil
}

// ShortestPathResponse model info
//
//	@Description	response body for a shortest path query
type ShortestPathResponse struct {
	Algorithm         string  `json:"algorithm"`
	Filter            string  `json:"filter"`
	Status            string  `json:"status"`
	Origin            int32   `json:"origin"`
	Destination       int32   `json:"destination"`
	Cost              float64 `json:"cost"`
	Length            float64 `json:"length"`              // meter
	MinimumTravelTime float64 `json:"minimum_travel_time"` // second
	Path              string  `json:"path"`
	Nodes             []int32 `json:"nodes"`
	SolvingTime       float64 `json:"solving_time_ms"`
}

func NewShortestPathResponse(result service.RouteResult) *ShortestPathResponse {
	return &ShortestPathResponse{
		Algorithm:         result.Algorithm,
		Filter:            result.Filter,
		Status:            result.Status,
		Origin:            result.Origin,
		Destination:       result.Destination,
		Cost:              result.Cost,
		Length:            result.Length,
		MinimumTravelTime: result.MinimumTravelTime,
		Path:              result.Polyline,
		Nodes:             result.Nodes,
		SolvingTime:       util.RoundFloat(float64(result.SolvingTime.Microseconds())/1000, 3),
	}
}

// ShortestPath
//
//	@Summary		shortest path between two coordinates, both snapped to the nearest usable node
//	@Tags			navigations
//	@Param			body	body	ShortestPathRequest	true	"request body shortest path"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/shortest-path [post]
//	@Success		200	{object}	ShortestPathResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if !h.bind(w, r, data) {
		return
	}

	result, err := h.svc.ShortestPath(r.Context(), datastructure.NewCoordinate(data.SrcLat, data.SrcLon),
		datastructure.NewCoordinate(data.DstLat, data.DstLon), data.Filter, data.Algorithm)
	if err != nil {
		render.Render(w, r, ErrorRenderer(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewShortestPathResponse(result))
}

// ShortestPathNodesRequest model info
//
//	@Description	request body for a shortest path query between two graph nodes
type ShortestPathNodesRequest struct {
	Origin      *int32 `json:"origin" validate:"required,gte=0"`
	Destination *int32 `json:"destination" validate:"required,gte=0"`
	Filter      string `json:"filter"`
	Algorithm   string `json:"algorithm" validate:"omitempty,oneof=dijkstra bellman-ford"`
}

func (s *ShortestPathNodesRequest) Bind(r *http.Request) error {
	return nil
}

func (h *NavigationHandler) ShortestPathNodes(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathNodesRequest{}
	if !h.bind(w, r, data) {
		return
	}

	result, err := h.svc.ShortestPathNodes(r.Context(), *data.Origin, *data.Destination, data.Filter, data.Algorithm)
	if err != nil {
		render.Render(w, r, ErrorRenderer(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewShortestPathResponse(result))
}

// CompareRequest model info
//
//	@Description	request body for running every shortest path algorithm on the same query
type CompareRequest struct {
	Origin      *int32 `json:"origin" validate:"required,gte=0"`
	Destination *int32 `json:"destination" validate:"required,gte=0"`
	Filter      string `json:"filter"`
}

func (s *CompareRequest) Bind(r *http.Request) error {
	return nil
}

type CompareResponse struct {
	Results []*ShortestPathResponse `json:"results"`
	Agree   bool                    `json:"agree"`
}

func (h *NavigationHandler) Compare(w http.ResponseWriter, r *http.Request) {
	data := &CompareRequest{}
	if !h.bind(w, r, data) {
		return
	}

	cmp, err := h.svc.CompareAlgorithms(r.Context(), *data.Origin, *data.Destination, data.Filter)
	if err != nil {
		render.Render(w, r, ErrorRenderer(err))
		return
	}

	resp := &CompareResponse{Agree: cmp.Agree}
	for _, result := range cmp.Results {
		resp.Results = append(resp.Results, NewShortestPathResponse(result))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// CarpoolingRequest model info
//
//	@Description	request body for carpooling. Without car_lat/car_lon the driver may start anywhere.
type CarpoolingRequest struct {
	PedestrianLat    float64  `json:"pedestrian_lat" validate:"required,lt=90,gt=-90"`
	PedestrianLon    float64  `json:"pedestrian_lon" validate:"required,lt=180,gt=-180"`
	CarLat           *float64 `json:"car_lat" validate:"omitempty,lt=90,gt=-90"`
	CarLon           *float64 `json:"car_lon" validate:"omitempty,lt=180,gt=-180"`
	DstLat           float64  `json:"dst_lat" validate:"required,lt=90,gt=-90"`
	DstLon           float64  `json:"dst_lon" validate:"required,lt=180,gt=-180"`
	PedestrianFilter string   `json:"pedestrian_filter"`
	CarFilter        string   `json:"car_filter"`
}

func (s *CarpoolingRequest) Bind(r *http.Request) error {
	if (s.CarLat == nil) != (s.CarLon == nil) {
		return errors.New("car_lat and car_lon must be given together")
	}
	return nil
}

// CarpoolingResponse model info
//
//	@Description	response body for carpooling
type CarpoolingResponse struct {
	Status           string  `json:"status"`
	PedestrianOrigin int32   `json:"pedestrian_origin"`
	CarOrigin        int32   `json:"car_origin"`
	Destination      int32   `json:"destination"`
	Pickup           int32   `json:"pickup"`
	PickupLat        float64 `json:"pickup_lat"`
	PickupLon        float64 `json:"pickup_lon"`
	Cost             float64 `json:"cost"`
	PedestrianCost   float64 `json:"pedestrian_cost"`
	CarCost          float64 `json:"car_cost"`
	Path             string  `json:"path"`
	PedestrianPath   string  `json:"pedestrian_path"`
	CarPath          string  `json:"car_path"`
	DriverPath       string  `json:"driver_path,omitempty"`
	Nodes            []int32 `json:"nodes"`
	SolvingTime      float64 `json:"solving_time_ms"`
}

func NewCarpoolingResponse(result service.CarpoolResult) *CarpoolingResponse {
	return &CarpoolingResponse{
		Status:           result.Status,
		PedestrianOrigin: result.PedestrianOrigin,
		CarOrigin:        result.CarOrigin,
		Destination:      result.Destination,
		Pickup:           result.Pickup,
		PickupLat:        result.PickupPoint.Lat,
		PickupLon:        result.PickupPoint.Lon,
		Cost:             result.Cost,
		PedestrianCost:   result.PedestrianCost,
		CarCost:          result.CarCost,
		Path:             result.Polyline,
		PedestrianPath:   result.PedestrianLeg,
		CarPath:          result.CarLeg,
		DriverPath:       result.DriverApproachLeg,
		Nodes:            result.Nodes,
		SolvingTime:      util.RoundFloat(float64(result.SolvingTime.Microseconds())/1000, 3),
	}
}

// Carpooling
//
//	@Summary		pickup node minimizing the walking cost plus the driving cost to the destination
//	@Tags			navigations
//	@Param			body	body	CarpoolingRequest	true	"request body carpooling"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/carpooling [post]
//	@Success		200	{object}	CarpoolingResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) Carpooling(w http.ResponseWriter, r *http.Request) {
	data := &CarpoolingRequest{}
	if !h.bind(w, r, data) {
		return
	}

	var car *datastructure.Coordinate
	if data.CarLat != nil {
		c := datastructure.NewCoordinate(*data.CarLat, *data.CarLon)
		car = &c
	}
	result, err := h.svc.Carpool(r.Context(), datastructure.NewCoordinate(data.PedestrianLat, data.PedestrianLon), car,
		datastructure.NewCoordinate(data.DstLat, data.DstLon), data.PedestrianFilter, data.CarFilter)
	if err != nil {
		render.Render(w, r, ErrorRenderer(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewCarpoolingResponse(result))
}
