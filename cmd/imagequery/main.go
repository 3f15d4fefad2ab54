package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terralens/imagequery/catalog"
	"github.com/terralens/imagequery/interface/catalog/copernicus"
	"github.com/terralens/imagequery/interface/catalog/earthengine"
	"github.com/terralens/imagequery/interface/session"
	"github.com/terralens/imagequery/query"
	"github.com/terralens/imagequery/service"
	"github.com/terralens/imagequery/service/log"
)

type config struct {
	Collections string
	StartDate   string
	EndDate     string
	Lon         float64
	Lat         float64
	RegionWKT   string
	Bands       string

	EarthEngineEndpoint string
	Token               string
	TokenURL            string
	ClientID            string
	Username            string
	Password            string
	CopernicusURL       string

	StorageURI string
	Timeout    time.Duration
	Port       int
}

func newAppConfig() (*config, error) {
	config := config{}
	flag.StringVar(&config.Collections, "collections", "", "comma-separated collections to query (e.g. COPERNICUS/S2_SR). If empty, start the HTTP server.")
	flag.StringVar(&config.StartDate, "start-date", "", "start of the date range (e.g. 2018-01-01)")
	flag.StringVar(&config.EndDate, "end-date", "", "end of the date range (e.g. 2018-01-02)")
	flag.Float64Var(&config.Lon, "lon", math.NaN(), "longitude of the point of interest")
	flag.Float64Var(&config.Lat, "lat", math.NaN(), "latitude of the point of interest")
	flag.StringVar(&config.RegionWKT, "region", "", "region of interest as WKT (takes precedence over lon/lat)")
	flag.StringVar(&config.Bands, "bands", "", "comma-separated bands to select (e.g. NDVI)")

	flag.StringVar(&config.EarthEngineEndpoint, "earthengine-endpoint", earthengine.DefaultEndpoint, "endpoint of the earthengine catalog service")
	flag.StringVar(&config.Token, "token", "", "static bearer token to connect to the earthengine catalog service (shortcut to skip the token endpoint)")
	flag.StringVar(&config.TokenURL, "token-url", "", "oauth2 token endpoint")
	flag.StringVar(&config.ClientID, "client-id", "", "oauth2 client id")
	flag.StringVar(&config.Username, "username", "", "username to connect to the catalog service")
	flag.StringVar(&config.Password, "password", "", "password to connect to the catalog service")
	flag.StringVar(&config.CopernicusURL, "copernicus-url", "", "url of the copernicus odata catalog service (optional)")

	flag.StringVar(&config.StorageURI, "storage-uri", "", "uri where results are exported (file://, gs:// or s3://) (optional)")
	flag.DurationVar(&config.Timeout, "timeout", 0, "timeout of a query resolution (0: none)")
	flag.IntVar(&config.Port, "port", 8080, "port of the HTTP server")
	flag.Parse()

	return &config, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx); err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}

	c := catalog.Catalog{}
	{
		// Connection to the external catalogue services
		var s *session.Session
		if config.Token != "" {
			s = session.Static(config.Token)
		} else if config.Username != "" {
			if s, err = session.New(ctx, session.Config{
				TokenURL: config.TokenURL,
				ClientID: config.ClientID,
				Username: config.Username,
				Password: config.Password,
			}); err != nil {
				return err
			}
		}
		c.Providers = append(c.Providers, &earthengine.Provider{Endpoint: config.EarthEngineEndpoint, Session: s})
		c.Providers = append(c.Providers, &copernicus.Provider{URL: config.CopernicusURL})

		// Result export
		if config.StorageURI != "" {
			if c.Storage, err = service.NewStorage(ctx, config.StorageURI); err != nil {
				return err
			}
		}
	}

	if config.Collections != "" {
		return resolveCollections(ctx, &c, config)
	}

	// HTTP Server
	r := mux.NewRouter()
	c.AddHandler(r)

	headersOk := handlers.AllowedHeaders([]string{"*"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})
	s := http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: handlers.CORS(originsOk, headersOk, methodsOk)(r),
	}

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger(ctx).Fatal("imagequery.ListenAndServe", zap.Error(err))
		}
	}()
	log.Logger(ctx).Sugar().Infof("catalog server is listening on %s", s.Addr)

	<-ctx.Done()
	sctx, cncl := context.WithTimeout(context.Background(), 30*time.Second)
	defer cncl()
	return s.Shutdown(sctx)
}

// resolveCollections resolves one query per collection (in parallel) and
// prints the results to stdout
func resolveCollections(ctx context.Context, c *catalog.Catalog, config *config) error {
	request := catalog.QueryRequest{
		StartDate: config.StartDate,
		EndDate:   config.EndDate,
		RegionWKT: config.RegionWKT,
	}
	if !math.IsNaN(config.Lon) && !math.IsNaN(config.Lat) {
		request.Lon, request.Lat = &config.Lon, &config.Lat
	}
	if config.Bands != "" {
		request.Bands = strings.Split(config.Bands, ",")
	}

	collections := strings.Split(config.Collections, ",")
	results := make([]*query.Result, len(collections))

	wg, ctx := errgroup.WithContext(ctx)
	for i, collection := range collections {
		request := request
		request.Collection = strings.TrimSpace(collection)
		wg.Go(func() error {
			q, err := catalog.BuildQuery(request)
			if err != nil {
				return err
			}
			ctx := ctx
			if config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, config.Timeout)
				defer cancel()
			}
			if results[i], err = c.ResolveQuery(ctx, q); err != nil {
				return fmt.Errorf("resolve %s: %w", request.Collection, err)
			}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, result := range results {
		if err := encoder.Encode(result); err != nil {
			return err
		}
	}
	return nil
}
