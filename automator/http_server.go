package automator

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/ap-airdrop/core/runstate"
	"github.com/AvaProtocol/ap-airdrop/model"
	"github.com/AvaProtocol/ap-airdrop/version"
)

type HttpJsonResp[T any] struct {
	Data T `json:"data"`
}

type HttpErrorResp struct {
	Error HttpError `json:"error"`
}

type HttpError struct {
	Code    model.ErrorCode `json:"code,omitempty"`
	Message string          `json:"message"`
}

type GenerateRequest struct {
	Count   int                `json:"count"`
	Variant model.ChainVariant `json:"variant"`
}

type RunRequest struct {
	Networks []*model.Network `json:"networks"`
	Filter   string           `json:"filter"`
	Options  map[string]any   `json:"options"`
}

type ForwardRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ReverseRequest struct {
	Destination string `json:"destination"`
}

// httpStatus maps the error taxonomy onto HTTP status codes
func httpStatus(err error) int {
	switch model.GetErrorCode(err) {
	case model.ValidationError, model.UnsupportedChainError,
		model.NoWalletsError, model.NoNetworksError, model.InsufficientWalletsError:
		return http.StatusBadRequest
	case model.InsufficientGasError, model.InsufficientBalanceError,
		model.NetworkCongestionError, model.TaskFailedError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c echo.Context, err error) error {
	resp := HttpErrorResp{Error: HttpError{Message: err.Error()}}
	if e, ok := model.AsError(err); ok {
		resp.Error.Code = e.Code
		resp.Error.Message = e.Message
	}
	return c.JSON(httpStatus(err), resp)
}

// waitFor tells whether the caller asked to block until the run ends
func waitFor(c echo.Context) bool {
	wait, _ := strconv.ParseBool(c.QueryParam("wait"))
	return wait
}

func (a *Automator) newHttpServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/up", func(c echo.Context) error {
		if a.Status() == runningStatus {
			return c.String(http.StatusOK, "up")
		}

		return c.String(http.StatusServiceUnavailable, "pending...")
	})

	e.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, &HttpJsonResp[map[string]string]{
			Data: map[string]string{"version": version.Get(), "revision": version.GetRevision()},
		})
	})

	e.GET("/wallets", func(c echo.Context) error {
		redacted := make([]*model.Wallet, 0)
		for _, w := range a.Wallets() {
			redacted = append(redacted, w.Redacted())
		}
		return c.JSON(http.StatusOK, &HttpJsonResp[[]*model.Wallet]{Data: redacted})
	})

	e.POST("/wallets/generate", func(c echo.Context) error {
		req := &GenerateRequest{Variant: model.ChainEVM}
		if err := c.Bind(req); err != nil {
			return errorResponse(c, model.NewValidationError("invalid request body: %v", err))
		}

		created, err := a.GenerateWallets(c.Request().Context(), req.Count, req.Variant)
		if err != nil {
			return errorResponse(c, err)
		}

		redacted := make([]*model.Wallet, len(created))
		for i, w := range created {
			redacted[i] = w.Redacted()
		}
		return c.JSON(http.StatusCreated, &HttpJsonResp[[]*model.Wallet]{Data: redacted})
	})

	e.GET("/networks", func(c echo.Context) error {
		networks, err := a.Networks(c.Request().Context(), c.QueryParam("filter"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, &HttpJsonResp[[]*model.Network]{Data: networks})
	})

	e.POST("/runs", func(c echo.Context) error {
		req := &RunRequest{}
		if err := c.Bind(req); err != nil {
			return errorResponse(c, model.NewValidationError("invalid request body: %v", err))
		}

		networks := req.Networks
		if networks == nil {
			var err error
			if networks, err = a.Networks(c.Request().Context(), req.Filter); err != nil {
				return errorResponse(c, err)
			}
		}

		if a.engine.State() != runstate.Idle {
			return c.JSON(http.StatusConflict, HttpErrorResp{Error: HttpError{Message: "a task run is already in progress"}})
		}

		if !waitFor(c) {
			// the run outlives the request
			a.goSafe(func() {
				if _, err := a.RunTasks(context.Background(), networks, req.Options); err != nil {
					a.logger.Warn("background task run failed", "error", err)
				}
			})
			return c.JSON(http.StatusAccepted, &HttpJsonResp[string]{Data: "started"})
		}

		report, err := a.RunTasks(c.Request().Context(), networks, req.Options)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, &HttpJsonResp[any]{Data: report})
	})

	e.POST("/runs/stop", func(c echo.Context) error {
		return c.JSON(http.StatusOK, &HttpJsonResp[bool]{Data: a.StopTasks()})
	})

	e.GET("/runs/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, &HttpJsonResp[model.ExecutionStats]{Data: a.TaskStats()})
	})

	e.POST("/cascade/forward", func(c echo.Context) error {
		req := &ForwardRequest{}
		if err := c.Bind(req); err != nil {
			return errorResponse(c, model.NewValidationError("invalid request body: %v", err))
		}

		if !waitFor(c) {
			a.goSafe(func() {
				if _, err := a.FundForward(context.Background(), req.Amount); err != nil {
					a.logger.Warn("background forward cascade failed", "error", err)
				}
			})
			return c.JSON(http.StatusAccepted, &HttpJsonResp[string]{Data: "started"})
		}

		report, err := a.FundForward(c.Request().Context(), req.Amount)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, &HttpJsonResp[any]{Data: report})
	})

	e.POST("/cascade/reverse", func(c echo.Context) error {
		req := &ReverseRequest{}
		if err := c.Bind(req); err != nil {
			return errorResponse(c, model.NewValidationError("invalid request body: %v", err))
		}

		if !waitFor(c) {
			a.goSafe(func() {
				if _, err := a.FundReverse(context.Background(), req.Destination); err != nil {
					a.logger.Warn("background reverse cascade failed", "error", err)
				}
			})
			return c.JSON(http.StatusAccepted, &HttpJsonResp[string]{Data: "started"})
		}

		report, err := a.FundReverse(c.Request().Context(), req.Destination)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, &HttpJsonResp[any]{Data: report})
	})

	e.POST("/cascade/stop", func(c echo.Context) error {
		return c.JSON(http.StatusOK, &HttpJsonResp[bool]{Data: a.StopCascade()})
	})

	e.GET("/export", func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="wallets-export.json"`)
		c.Response().WriteHeader(http.StatusOK)

		_, err := a.Export(c.Response())
		return err
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return e
}

func (a *Automator) startHttpServer(ctx context.Context) {
	// If http_bind_address is not set, skip HTTP server startup entirely
	if a.config.HttpBindAddress == "" {
		a.logger.Info("HTTP server disabled: no http_bind_address configured")
		return
	}

	a.echo = a.newHttpServer()

	addr := a.config.HttpBindAddress
	a.logger.Info("HTTP server listening", "address", addr)
	a.goSafe(func() {
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("HTTP server failed to start; continuing without HTTP endpoint", "address", addr, "error", err)
		}
	})
}

func (a *Automator) stopHttpServer() {
	if a.echo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.echo.Shutdown(ctx); err != nil {
		a.logger.Warn("HTTP server did not shut down cleanly", "error", err)
	}
}

// goSafe runs fn in a goroutine. A panic is logged before it is raised again
// so it is not lost behind the HTTP response that already went out.
func (a *Automator) goSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("background job panicked", "panic", r)
				panic(r)
			}
		}()
		fn()
	}()
}
