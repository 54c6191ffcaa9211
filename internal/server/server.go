package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"tasklock/internal/domain"
	"tasklock/internal/engine"
	"tasklock/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"unknown_list"`
	Message string         `json:"message" example:"unknown list: \"todo\""`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError is the error envelope every failing request returns.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the task API.
func New(cfg Config) (http.Handler, error) {
	basePath := normalizeBasePath(cfg.BasePath)
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			msgs := make([]string, 0, len(errs))
			for _, e := range errs {
				msgs = append(msgs, e.Error())
			}
			details = map[string]any{"errors": msgs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Tasklock API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	// plain bodies, no $schema links
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerState(group, cfg.Engine)
	registerActions(group, cfg.Engine)
	registerLists(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func normalizeBasePath(basePath string) string {
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/")
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, domain.ErrUnknownList):
		return newAPIError(http.StatusBadRequest, "unknown_list", err.Error(), nil)
	case errors.Is(err, store.ErrCorrupt):
		return newAPIError(http.StatusInternalServerError, "corrupt_state", err.Error(), nil)
	case errors.Is(err, context.Canceled):
		return newAPIError(http.StatusServiceUnavailable, "canceled", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get(path.Join(basePath, "docs"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var (
		once sync.Once
		spec []byte
	)
	r.Get(path.Join(basePath, "openapi.json"), func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Security = []map[string][]string{{"bearerAuth": {}}}
	healthPath := path.Join(basePath, "health")
	if item, ok := oas.Paths[healthPath]; ok && item.Get != nil {
		item.Get.Security = []map[string][]string{}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", basePath, "openapi.json")
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Tasklock API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerState(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/state",
		Summary:     "Get the full task state",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*StateResponse, error) {
		data, err := e.State(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &StateResponse{Body: data}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-state",
		Method:      http.MethodPut,
		Path:        "/state",
		Summary:     "Replace the full task state",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		RawBody []byte `contentType:"application/json"`
	}) (*ResultResponse, error) {
		data, err := store.Decode(input.RawBody)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "invalid_state", err.Error(), nil)
		}
		res, err := e.Import(actorContext(ctx), data)
		if err != nil {
			return nil, handleError(err)
		}
		return &ResultResponse{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-summary",
		Method:      http.MethodGet,
		Path:        "/summary",
		Summary:     "Current task label, list headings and storage status",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*SummaryResponse, error) {
		st, err := e.Status(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &SummaryResponse{Body: st}, nil
	})
}

func registerActions(api huma.API, e engine.Engine) {
	actions := []struct {
		id, path, summary string
		run               func(context.Context) (engine.Result, error)
	}{
		{"roll", "/roll", "Roll a new current task", e.Roll},
		{"backlog", "/backlog", "Move the current task to the backlog", e.Backlog},
		{"complete", "/complete", "Complete the current task", e.Complete},
	}
	for _, a := range actions {
		run := a.run
		huma.Register(api, huma.Operation{
			OperationID: a.id,
			Method:      http.MethodPost,
			Path:        a.path,
			Summary:     a.summary,
			Errors:      []int{http.StatusInternalServerError},
		}, func(ctx context.Context, _ *struct{}) (*ResultResponse, error) {
			res, err := run(actorContext(ctx))
			if err != nil {
				return nil, handleError(err)
			}
			return &ResultResponse{Body: res}, nil
		})
	}
}

func registerLists(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-list-text",
		Method:      http.MethodGet,
		Path:        "/lists/{list}/text",
		Summary:     "Render a list as editable text",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *ListPath) (*ListTextResponse, error) {
		list, err := domain.ParseList(input.List)
		if err != nil {
			return nil, handleError(err)
		}
		text, err := e.Text(ctx, list)
		if err != nil {
			return nil, handleError(err)
		}
		return &ListTextResponse{Body: ListText{List: list.String(), Text: text}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-list-text",
		Method:      http.MethodPut,
		Path:        "/lists/{list}/text",
		Summary:     "Replace a list from edited text",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ListPath
		Body ReplaceTextRequest `json:"body"`
	}) (*ResultResponse, error) {
		list, err := domain.ParseList(input.List)
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.Replace(actorContext(ctx), list, input.Body.Text)
		if err != nil {
			return nil, handleError(err)
		}
		return &ResultResponse{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-tasks",
		Method:      http.MethodPost,
		Path:        "/lists/{list}/tasks",
		Summary:     "Append tasks to the active list or backlog",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ListPath
		Body AddTasksRequest `json:"body"`
	}) (*ResultResponse, error) {
		list, err := domain.ParseList(input.List)
		if err != nil {
			return nil, handleError(err)
		}
		if list == domain.Completed {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "tasks cannot be added to the completed list", nil)
		}
		res, err := e.Add(actorContext(ctx), list, input.Body.Tasks...)
		if err != nil {
			return nil, handleError(err)
		}
		return &ResultResponse{Body: res}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent state transitions, newest first",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Limit int    `query:"limit" default:"20" minimum:"1" maximum:"500"`
		Type  string `query:"type"`
	}) (*EventsResponse, error) {
		items, err := e.History(ctx, input.Limit, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		return &EventsResponse{Body: EventList{Items: items}}, nil
	})
}
