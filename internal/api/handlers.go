package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sudankdk/runbox/internal/logging"
	"github.com/sudankdk/runbox/internal/model"
)

// Request is the single envelope POSTed to "/". Pointer fields tell an
// absent key apart from an empty string.
type Request struct {
	Mode         string  `json:"mode"`
	CompilerName *string `json:"compilerName"`
	SourceCode   *string `json:"sourceCode"`
	Stdin        *string `json:"stdin"`
}

func (s *Server) setupRoutes(app *fiber.App) {
	app.Post("/", s.apiHandler)
}

func (s *Server) apiHandler(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	switch req.Mode {
	case "list":
		return c.JSON(s.exec.Compilers())
	case "run":
		return c.JSON(s.run(c, req))
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Error: invalid mode")
	}
}

func (s *Server) run(c *fiber.Ctx, req Request) RunResult {
	if req.CompilerName == nil {
		return s.failure(c, model.MissingField("compilerName"))
	}
	if req.SourceCode == nil {
		return s.failure(c, model.MissingField("sourceCode"))
	}
	code := model.Code{Compiler: *req.CompilerName, SourceCode: *req.SourceCode}
	if req.Stdin != nil {
		code.Stdin = *req.Stdin
	}

	out, err := s.exec.Run(c.UserContext(), code)
	if err != nil {
		return s.failure(c, err)
	}
	return successResult(out)
}

func (s *Server) failure(c *fiber.Ctx, err error) RunResult {
	res := failureResult(err)
	if res.Status == StatusInternalError {
		logging.FromContext(c.UserContext(), s.log).Error("run failed", "kind", model.KindOf(err).String(), "error", err)
	}
	return res
}
