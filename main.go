package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/cadence/worker"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/RichardKnop/machinery/v1"
	machineryconf "github.com/RichardKnop/machinery/v1/config"
	"github.com/dgrijalva/jwt-go"
	"github.com/getsentry/sentry-go"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/uber-go/tally"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/helpme-app/helpme-api/api"
	"github.com/helpme-app/helpme-api/availability"
	"github.com/helpme-app/helpme-api/background"
	"github.com/helpme-app/helpme-api/background/sweeper"
	"github.com/helpme-app/helpme-api/dispatch"
	"github.com/helpme-app/helpme-api/external/cadence"
	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/schema"
	"github.com/helpme-app/helpme-api/store"
	"github.com/helpme-app/helpme-api/utils"
)

const eventQueueSize = 1024

var (
	server      *api.Server
	ormDB       *gorm.DB
	mongoStore  store.MongoStore
	natsConn    *nats.Conn
	sweepWorker worker.Worker
	cadenceConn *cadence.CadenceClient
	sinks       []*background.AsyncSink
)

func initLog() {
	logLevel, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(logLevel)
	}

	log.SetOutput(os.Stdout)

	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
}

func loadConfig(file string) {
	// Config from file
	viper.SetConfigType("yaml")
	if file != "" {
		viper.SetConfigFile(file)
	}

	viper.AddConfigPath("/.config/")
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Println("No config file. Read config from env.")
		viper.AllowEmptyEnv(false)
	}

	// Config from env if possible
	viper.AutomaticEnv()
	viper.SetEnvPrefix("helpme")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("dispatch.location_refresh", time.Minute)
	viper.SetDefault("google.languages", []string{"en"})
	viper.SetDefault("background.queue", "helpme_background")
}

// loadDispatchConfig overrides the default dispatch settings with the ones
// found in the config. Invalid settings stop the server.
func loadDispatchConfig() dispatch.Config {
	cfg := dispatch.DefaultConfig()

	if viper.IsSet("dispatch.offer_timeout") {
		cfg.OfferTimeout = viper.GetDuration("dispatch.offer_timeout")
	}
	if viper.IsSet("dispatch.backoff") {
		cfg.Backoff = viper.GetDuration("dispatch.backoff")
	}
	if viper.IsSet("dispatch.max_retries") {
		cfg.MaxRetries = viper.GetInt("dispatch.max_retries")
	}
	if viper.IsSet("dispatch.mode") {
		cfg.Mode = dispatch.Mode(viper.GetString("dispatch.mode"))
	}
	if viper.IsSet("dispatch.broadcast_size") {
		cfg.BroadcastSize = viper.GetInt("dispatch.broadcast_size")
	}
	if viper.IsSet("dispatch.max_candidates") {
		cfg.MaxCandidates = viper.GetInt("dispatch.max_candidates")
	}
	if viper.IsSet("dispatch.max_distance") {
		cfg.MaxDistance = viper.GetFloat64("dispatch.max_distance")
	}

	if err := cfg.Validate(); err != nil {
		log.Panicf("dispatch config: %s", err)
	}

	return cfg
}

// initSinks builds the event sinks of the dispatcher. Snapshots go to the
// background worker through machinery when redis is configured and are
// saved in-process otherwise.
func initSinks(helpStore store.HelpCore, scope tally.Scope) []dispatch.EventSink {
	var persistence background.Publisher
	if conn := viper.GetString("redis.conn"); conn != "" {
		taskServer, err := machinery.NewServer(&machineryconf.Config{
			Broker:        conn,
			DefaultQueue:  viper.GetString("background.queue"),
			ResultBackend: conn,
		})
		if err != nil {
			log.Panic(err)
		}
		persistence = background.NewMachinerySink(taskServer)
		log.WithField("prefix", "init").Info("Initialized machinery event sink")
	} else {
		persistence = background.NewStoreSink(background.New(helpStore, nil))
		log.WithField("prefix", "init").Info("Initialized in-process store sink")
	}
	sinks = append(sinks, background.NewAsyncSink("persistence", persistence, eventQueueSize, scope))

	if url := viper.GetString("nats.url"); url != "" {
		conn, err := nats.Connect(url, nats.Name("helpme-api"))
		if err != nil {
			log.Panicf("connect nats with error: %s", err)
		}
		natsConn = conn
		sinks = append(sinks, background.NewAsyncSink("nats", background.NewNATSSink(conn), eventQueueSize, scope))
		log.WithField("prefix", "init").Info("Initialized nats event sink")
	}

	result := make([]dispatch.EventSink, 0, len(sinks))
	for _, s := range sinks {
		result = append(result, s)
	}
	return result
}

func initAddressResolver() geo.AddressResolver {
	key := viper.GetString("google.map_key")
	if key == "" {
		return nil
	}

	client, err := maps.NewClient(maps.WithAPIKey(key))
	if err != nil {
		log.Panic(err)
	}

	// languages are tried in order until one resolves
	resolvers := make([]geo.AddressResolver, 0)
	for _, lang := range viper.GetStringSlice("google.languages") {
		resolvers = append(resolvers, geo.NewGeocodingAddressResolver(client, lang))
	}
	return geo.NewMultipleAddressResolver(resolvers...)
}

// restore loads helpers and unfinished requests saved by a previous run
func restore(ctx context.Context, d *dispatch.Dispatcher, helpStore store.HelpCore) {
	helpers, err := helpStore.ListHelpers()
	if err != nil {
		log.Panic(err)
	}
	for _, h := range helpers {
		if err := d.RegisterHelper(h); err != nil {
			log.WithError(err).WithField("helper", h.ID).Warn("skip helper")
		}
	}

	if err := d.Tracker().Refresh(ctx); err != nil {
		log.WithError(err).Error("refresh helper locations")
	}

	requests, err := helpStore.ListRequests(schema.RequestActive, schema.RequestAccepted)
	if err != nil {
		log.Panic(err)
	}
	d.Restore(requests)
}

// refreshLocations pulls the latest helper positions until ctx is done
func refreshLocations(ctx context.Context, tracker *availability.Tracker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := tracker.Refresh(ctx); err != nil {
				log.WithError(err).Error("refresh helper locations")
			}
		}
	}
}

// startSweeper runs the stale request sweeper of this dispatcher and makes
// sure its workflow is running
func startSweeper(ctx context.Context, d *dispatch.Dispatcher, helpStore store.HelpCore, scope tally.Scope) utils.WorkflowSignaler {
	hostPort := viper.GetString("cadence.conn")
	if hostPort == "" {
		log.WithField("prefix", "init").Warn("Cadence is not configured, stale requests are kept")
		return nil
	}
	domain := viper.GetString("cadence.domain")

	client, err := cadence.NewClient(hostPort, domain, scope)
	if err != nil {
		log.Panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Panic(err)
	}

	cadenceConn = client

	w := sweeper.NewSweepWorker(domain, helpStore, d)
	w.Register()
	sweepWorker, err = w.Start(client.Service(), logger, scope)
	if err != nil {
		log.Panic(err)
	}

	if err := utils.TriggerSweep(client, ctx); err != nil {
		log.WithError(err).Error("start stale request sweep")
	}

	log.WithField("prefix", "init").Info("Initialized stale request sweeper")
	return client
}

func shutdown(cancelBackground context.CancelFunc, closeScope func() error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		log.Info("Shutdown api server")
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Server Shutdown:", err)
		}
	}

	if sweepWorker != nil {
		log.Info("Stop sweeper worker")
		sweepWorker.Stop()
	}

	if cadenceConn != nil {
		if err := cadenceConn.Close(); err != nil {
			log.Error(err)
		}
	}

	cancelBackground()

	for _, s := range sinks {
		s.Close()
	}

	if natsConn != nil {
		log.Info("Draining nats connection")
		if err := natsConn.Drain(); err != nil {
			log.Error(err)
		}
	}

	if mongoStore != nil {
		mongoStore.Close()
	}

	if ormDB != nil {
		log.Info("Shutting down db store")
		if err := ormDB.Close(); err != nil {
			log.Error(err)
		}
	}

	if closeScope != nil {
		if err := closeScope(); err != nil {
			log.Error(err)
		}
	}
}

func main() {
	var configFile string

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	var closeScope func() error

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Server is preparing to shutdown")
		shutdown(cancelBackground, closeScope)
		os.Exit(1)
	}()

	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.Parse()

	loadConfig(configFile)

	initLog()

	// Sentry
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              viper.GetString("sentry.dsn"),
		AttachStacktrace: true,
		Environment:      viper.GetString("sentry.environment"),
		Dist:             viper.GetString("sentry.dist"),
	}); err != nil {
		log.Error(err)
	}
	log.WithField("prefix", "init").Info("Initialized sentry")

	// Load JWT private key
	jwtSecretByte, err := ioutil.ReadFile(viper.GetString("jwt.keyfile"))
	if err != nil {
		log.Panic(err)
	}
	jwtPrivateKey, err := jwt.ParseRSAPrivateKeyFromPEMWithPassword(jwtSecretByte, viper.GetString("jwt.password"))
	if err != nil {
		log.Panic(err)
	}
	log.WithField("prefix", "init").Info("Loaded global jwt key")

	scope, closer := tally.NewRootScope(tally.ScopeOptions{Prefix: "helpme"}, time.Second)
	closeScope = closer.Close

	ormDB, err = gorm.Open("postgres", viper.GetString("orm.conn"))
	if err != nil {
		log.Panic(err)
	}
	helpStore := store.NewHelpStore(ormDB)

	// initialise mongodb connections
	opts := options.Client().ApplyURI(viper.GetString("mongo.conn"))
	opts.SetMaxPoolSize(viper.GetUint64("mongo.pool"))
	mongoClient, err := mongo.NewClient(opts)
	if nil != err {
		log.Panicf("create mongo client with error: %s", err)
	}

	err = mongoClient.Connect(backgroundCtx)
	if nil != err {
		log.Panicf("connect mongo database with error: %s", err)
	}
	mongoStore = store.NewMongoStore(mongoClient, viper.GetString("mongo.database"))

	tracker := availability.NewTracker(mongoStore)
	dispatcher := dispatch.New(tracker, dispatch.Options{
		Config:   loadDispatchConfig(),
		Resolver: initAddressResolver(),
		Sinks:    initSinks(helpStore, scope),
		Scope:    scope.SubScope("dispatch"),
	})
	log.WithField("prefix", "init").Info("Initialized dispatcher")

	restore(backgroundCtx, dispatcher, helpStore)
	go refreshLocations(backgroundCtx, tracker, viper.GetDuration("dispatch.location_refresh"))

	signaler := startSweeper(backgroundCtx, dispatcher, helpStore, scope.SubScope("sweeper"))

	// Init http server
	server = api.NewServer(
		dispatcher,
		helpStore,
		mongoStore,
		signaler,
		jwtPrivateKey)
	log.WithField("prefix", "init").Info("Initialized http server")

	log.Fatal(server.Run(":" + viper.GetString("server.port")))
}
