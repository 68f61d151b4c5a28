package handlers

import (
	"fmt"
	"time"

	"martinspocos/internal/app"
	contractController "martinspocos/internal/controllers/contracts"
	"martinspocos/internal/handlers/middleware"
	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ContractHandler struct {
	Handler
	controller contractController.ContractControllerInterface
}

func NewContractHandler(app app.App, router fiber.Router) *ContractHandler {
	return &ContractHandler{
		controller: app.Controllers.Contract,
		Handler: Handler{
			log:        logger.New("handlers").File("contract_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ContractHandler) Register() {
	m := h.middleware

	contracts := h.router.Group("/contracts", m.RequireAuth())
	contracts.Post("/", m.RequireStaff(), h.generate)
	contracts.Get("/export", m.RequireStaff(), h.export)
	contracts.Get("/:id", h.get)
	contracts.Put("/:id", m.RequireStaff(), h.updateTerms)
	contracts.Put("/:id/status", m.RequireStaff(), h.setStatus)

	supervisory := h.router.Group("/supervisory/contracts", m.RequireAuth(), m.RequireSupervisor())
	supervisory.Get("/", h.listSupervisory)
	supervisory.Put("/:id/approve", h.approve)
	supervisory.Put("/:id/sign", h.sign(SignerSupervisor))
	supervisory.Get("/:id/sign", h.listSignatures)

	client := h.router.Group("/client/contracts", m.RequireAuth(), m.RequireCustomer())
	client.Get("/", h.listForClient)
	client.Put("/:id/sign", h.sign(SignerClient))
	client.Get("/:id/sign", h.listSignatures)
}

func (h *ContractHandler) generate(c *fiber.Ctx) error {
	var request contractController.GenerateContractRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	contract, err := h.controller.Generate(c.UserContext(), &request)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(contract)
}

func (h *ContractHandler) get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	contract, err := h.controller.Get(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(contract)
}

func (h *ContractHandler) updateTerms(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var request contractController.UpdateContractRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	contract, err := h.controller.UpdateTerms(c.UserContext(), id, &request)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(contract)
}

func (h *ContractHandler) setStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var request contractController.SetStatusRequest
	if err := parseBody(c, &request); err != nil {
		return respondError(c, h.log, err)
	}

	contract, err := h.controller.SetStatus(c.UserContext(), id, &request)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(contract)
}

func (h *ContractHandler) approve(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	contract, err := h.controller.Approve(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(contract)
}

// sign binds the endpoint's default signer role.
func (h *ContractHandler) sign(role SignerRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return respondError(c, h.log, err)
		}

		var request contractController.SignContractRequest
		if err := parseBody(c, &request); err != nil {
			return respondError(c, h.log, err)
		}

		contract, err := h.controller.Sign(c.UserContext(), middleware.GetPrincipal(c), id, role, &request)
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(contract)
	}
}

func (h *ContractHandler) listSignatures(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	signatures, err := h.controller.ListSignatures(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(signatures)
}

func (h *ContractHandler) listSupervisory(c *fiber.Ctx) error {
	contracts, err := h.controller.ListSupervisory(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(contracts)
}

func (h *ContractHandler) listForClient(c *fiber.Ctx) error {
	contracts, err := h.controller.ListForClient(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(contracts)
}

func (h *ContractHandler) export(c *fiber.Ctx) error {
	buf, err := h.controller.Export(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}

	filename := fmt.Sprintf("contratos-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
