package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todo-api/api"
	"todo-api/attachments"
	"todo-api/domain"
	"todo-api/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	todosTableName := os.Getenv("TODOS_TABLE")
	attachmentsContainer := os.Getenv("ATTACHMENTS_CONTAINER")
	if connStr == "" || todosTableName == "" || attachmentsContainer == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, todosTableName)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	urlExpiration := 5 * time.Minute
	if v := os.Getenv("SIGNED_URL_EXPIRATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid SIGNED_URL_EXPIRATION: %v", err)
		}
		urlExpiration = d
	}
	locator, err := attachments.New(connStr, attachmentsContainer, urlExpiration)
	if err != nil {
		log.Fatalf("attachments: %v", err)
	}

	var todoStore domain.Storage = store
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		ttl := 30 * time.Second
		if v := os.Getenv("TODOS_CACHE_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid TODOS_CACHE_TTL: %v", err)
			}
			ttl = d
		}
		todoStore = storage.NewCache(store, redis.NewClient(redisOpts), ttl)
	}

	logger := log.New()
	svc := domain.NewService(todoStore, locator, logger)

	var auth *api.Auth
	if os.Getenv("AUTH0_TEST_MODE") == "1" {
		auth = api.NewAuth(nil, "", "")
	} else {
		jwtAudience := os.Getenv("AUTH0_AUDIENCE")
		auth0Domain := os.Getenv("AUTH0_DOMAIN")
		if jwtAudience == "" || auth0Domain == "" {
			log.Fatal("missing Auth0 config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", auth0Domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, jwtAudience, "https://"+auth0Domain+"/")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, svc, auth, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
