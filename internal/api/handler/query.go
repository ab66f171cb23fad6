package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fabricadesoftware/vumock/internal/api/middleware"
	"github.com/fabricadesoftware/vumock/internal/api/validate"
	"github.com/fabricadesoftware/vumock/internal/domain"
)

// matchProcessingHTML is the error page served when a query hits a target
// in a state the backend cannot answer for, byte-for-byte the page the
// real endpoint's Jetty frontend produces.
const matchProcessingHTML = `<html>
<head>
<meta http-equiv="Content-Type" content="text/html;charset=ISO-8859-1"/>
<title>Error 500 Server Error</title>
</head>
<body><h2>HTTP ERROR 500</h2>
<p>Problem accessing /v1/query. Reason:
<pre>    Server Error</pre></p>
<hr><a href="http://eclipse.org/jetty">Powered by Jetty:// 9.4.z-SNAPSHOT</a><hr/>

</body>
</html>
`

type QueryHandler struct {
	logger *slog.Logger
}

func NewQueryHandler(logger *slog.Logger) *QueryHandler {
	return &QueryHandler{logger: logger}
}

// Recognize answers a recognition query. Matching is exact image equality
// against active, successfully processed targets; no computer vision runs.
// A matching target that is mid-processing, or was deleted less than the
// deletion window ago, produces the backend's opaque server error instead
// of a result list.
func (h *QueryHandler) Recognize(c *fiber.Ctx) error {
	st, err := middleware.StoreFrom(c)
	if err != nil {
		return err
	}
	if st.Database().State != domain.StateWorking {
		return domain.ErrInactiveProject
	}

	params, err := validate.Query(view(c), st.Now())
	if err != nil {
		return err
	}

	matches, unstable := st.Match(params.Image)
	if unstable {
		return &domain.RawError{
			StatusCode:  fiber.StatusInternalServerError,
			ContentType: "text/html; charset=ISO-8859-1",
			Body:        matchProcessingHTML,
			Header: map[string]string{
				fiber.HeaderCacheControl: "must-revalidate,no-cache,no-store",
			},
		}
	}
	if len(matches) > params.MaxNumResults {
		matches = matches[:params.MaxNumResults]
	}

	results := make([]fiber.Map, 0, len(matches))
	for i, t := range matches {
		result := fiber.Map{"target_id": t.ID}
		if params.IncludeTargetData == "all" || (params.IncludeTargetData == "top" && i == 0) {
			result["target_data"] = fiber.Map{
				"target_timestamp":     t.LastModified.Unix(),
				"name":                 t.Name,
				"application_metadata": t.ApplicationMetadata,
			}
		}
		results = append(results, result)
	}

	h.logger.Debug("query answered", slog.Int("matches", len(results)))

	return c.JSON(fiber.Map{
		"result_code": domain.ResultSuccess,
		"results":     results,
		"query_id":    domain.RandomHex(),
	})
}
