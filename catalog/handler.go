package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	geomwkt "github.com/go-spatial/geom/encoding/wkt"
	"github.com/gorilla/mux"

	"github.com/terralens/imagequery/query"
	"github.com/terralens/imagequery/service"
)

const queryJSONField = "query"

// QueryRequest is the payload of the query endpoint
type QueryRequest struct {
	Collection    string          `json:"collection"`
	StartDate     string          `json:"start_date,omitempty"`
	EndDate       string          `json:"end_date,omitempty"`
	Lon           *float64        `json:"lon,omitempty"`
	Lat           *float64        `json:"lat,omitempty"`
	RegionWKT     string          `json:"region_wkt,omitempty"`
	RegionGeoJSON json.RawMessage `json:"region_geojson,omitempty"`
	Bands         []string        `json:"bands,omitempty"`
}

// AddHandler registers the catalog routes
func (c *Catalog) AddHandler(r *mux.Router) {
	r.HandleFunc("/catalog/query", c.QueryHandler).Methods("POST")
	r.HandleFunc("/catalog/collections/{collection:.+}/images", c.ImagesHandler).Methods("GET")
}

// BuildQuery translates the request into a Query
func BuildQuery(request QueryRequest) (query.Query, error) {
	q, err := query.New(request.Collection)
	if err != nil {
		return q, err
	}
	if request.StartDate != "" || request.EndDate != "" {
		r, err := query.ParseDateRange(request.StartDate, request.EndDate)
		if err != nil {
			return q, err
		}
		if q, err = q.FilterDate(r.Start, r.End); err != nil {
			return q, err
		}
	}
	if len(request.RegionGeoJSON) != 0 {
		g, err := service.UnmarshalGeometry(request.RegionGeoJSON)
		if err != nil {
			return q, fmt.Errorf("BuildQuery.UnmarshalGeometry: %w", err)
		}
		regionWKT, err := geomwkt.EncodeString(g)
		if err != nil {
			return q, fmt.Errorf("BuildQuery.EncodeString: %w", err)
		}
		if q, err = q.FilterBounds(query.Region(regionWKT)); err != nil {
			return q, err
		}
	} else if request.RegionWKT != "" {
		if q, err = q.FilterBounds(query.Region(request.RegionWKT)); err != nil {
			return q, err
		}
	} else if request.Lon != nil && request.Lat != nil {
		if q, err = q.FilterBounds(query.Point(*request.Lon, *request.Lat)); err != nil {
			return q, err
		}
	}
	if len(request.Bands) != 0 {
		if q, err = q.Select(request.Bands...); err != nil {
			return q, err
		}
	}
	return q, nil
}

func readQuery(req *http.Request) ([]byte, error) {
	if v := req.FormValue(queryJSONField); v != "" {
		return []byte(v), nil
	}
	return io.ReadAll(req.Body)
}

func (c *Catalog) QueryHandler(w http.ResponseWriter, req *http.Request) {
	queryJSON, err := readQuery(req)
	if err != nil || len(queryJSON) == 0 {
		w.WriteHeader(400)
		fmt.Fprintf(w, "missing required field: '%s' (application/json)", queryJSONField)
		return
	}
	request := QueryRequest{}
	if err := json.Unmarshal(queryJSON, &request); err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v\nJSON:\n%s", err, queryJSON)
		return
	}
	c.resolveRequest(w, req, request)
}

func (c *Catalog) ImagesHandler(w http.ResponseWriter, req *http.Request) {
	request := QueryRequest{
		Collection: mux.Vars(req)["collection"],
		StartDate:  req.FormValue("start"),
		EndDate:    req.FormValue("end"),
		RegionWKT:  req.FormValue("region"),
	}
	if bands := req.FormValue("bands"); bands != "" {
		request.Bands = strings.Split(bands, ",")
	}
	for param, dst := range map[string]**float64{"lon": &request.Lon, "lat": &request.Lat} {
		if v := req.FormValue(param); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				w.WriteHeader(400)
				fmt.Fprintf(w, "%s: %v", param, err)
				return
			}
			*dst = &f
		}
	}
	c.resolveRequest(w, req, request)
}

func (c *Catalog) resolveRequest(w http.ResponseWriter, req *http.Request, request QueryRequest) {
	q, err := BuildQuery(request)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}

	result, err := c.ResolveQuery(req.Context(), q)
	if err != nil {
		w.WriteHeader(httpStatus(err))
		fmt.Fprintf(w, "%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
	}
}

func httpStatus(err error) int {
	var errAuth query.ErrAuthenticationRequired
	var errSvc query.ErrServiceUnavailable
	var errID query.ErrInvalidIdentifier
	var errRange query.ErrInvalidRange
	var errCoord query.ErrInvalidCoordinate
	var errEmpty query.ErrEmptySelection
	switch {
	case errors.As(err, &errAuth):
		return 401
	case errors.As(err, &errSvc):
		return 502
	case errors.As(err, &errID), errors.As(err, &errRange), errors.As(err, &errCoord), errors.As(err, &errEmpty):
		return 400
	}
	return 500
}
