package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"eicrcore/docs/schema/openapi"
	"eicrcore/internal/core"
	"eicrcore/internal/maxzs"
	"eicrcore/internal/voice"
)

type addCircuitRequest struct {
	Description string `json:"description"`
}

type recordsResponse struct {
	FormID   string            `json:"formId"`
	Circuits []core.TestResult `json:"circuits"`
}

type countResponse struct {
	Count int `json:"count"`
}

type commandResponse struct {
	Action string `json:"action"`
	Reply  string `json:"reply"`
}

type maxZsResponse struct {
	BSStandard string `json:"bsStandard"`
	Curve      string `json:"curve"`
	Rating     string `json:"rating"`
	MaxZs      string `json:"maxZs"`
	Tabulated  string `json:"tabulated,omitempty"`
}

// ListForms returns the ids of every stored form.
func (c *Controller) ListForms(ctx echo.Context) error {
	forms, err := c.svc.Forms(ctx.Request().Context())
	if err != nil {
		return err
	}
	if forms == nil {
		forms = []string{}
	}
	return ctx.JSON(http.StatusOK, map[string][]string{"forms": forms})
}

// ListCircuits returns a form's collection in order.
func (c *Controller) ListCircuits(ctx echo.Context) error {
	formID := ctx.Param("id")
	records, err := c.svc.Records(ctx.Request().Context(), formID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, recordsResponse{FormID: formID, Circuits: records})
}

// AddCircuit appends an empty circuit.
func (c *Controller) AddCircuit(ctx echo.Context) error {
	var req addCircuitRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&req); err != nil {
			return err
		}
	}
	rec, err := c.svc.AddCircuit(ctx.Request().Context(), ctx.Param("id"), req.Description)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

// UpdateCircuit applies a JSON object of field names to values. Fields are
// applied in name order and the first failure stops the update.
func (c *Controller) UpdateCircuit(ctx echo.Context) error {
	var changes map[string]string
	if err := decodeJSON(ctx, &changes); err != nil {
		return err
	}
	if len(changes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no fields to update")
	}
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	var rec core.TestResult
	for _, name := range names {
		var err error
		rec, err = c.svc.UpdateField(ctx.Request().Context(), ctx.Param("id"), ctx.Param("circuitID"), name, changes[name])
		if err != nil {
			return err
		}
	}
	return ctx.JSON(http.StatusOK, rec)
}

// DeleteCircuit removes one circuit; Undo restores it.
func (c *Controller) DeleteCircuit(ctx echo.Context) error {
	rec, err := c.svc.DeleteCircuit(ctx.Request().Context(), ctx.Param("id"), ctx.Param("circuitID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

// RemoveAll clears a form. It requires ?confirm=true.
func (c *Controller) RemoveAll(ctx echo.Context) error {
	confirm, _ := strconv.ParseBool(ctx.QueryParam("confirm"))
	n, err := c.svc.RemoveAll(ctx.Request().Context(), ctx.Param("id"), confirm)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

// Undo restores the last deleted circuit.
func (c *Controller) Undo(ctx echo.Context) error {
	rec, err := c.svc.Undo(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

// decodeJSON reads a map body directly; echo's binder would merge path
// parameters into map targets.
func decodeJSON(ctx echo.Context, v any) error {
	if err := json.NewDecoder(ctx.Request().Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}

func readBody(ctx echo.Context) ([]byte, error) {
	data, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable body").SetInternal(err)
	}
	if len(data) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "empty body")
	}
	return data, nil
}

// ImportBoardScan builds circuits from a board scan payload.
func (c *Controller) ImportBoardScan(ctx echo.Context) error {
	data, err := readBody(ctx)
	if err != nil {
		return err
	}
	report, err := c.svc.ImportBoardScan(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

// ImportTestScan merges a test result scan payload.
func (c *Controller) ImportTestScan(ctx echo.Context) error {
	data, err := readBody(ctx)
	if err != nil {
		return err
	}
	report, err := c.svc.ImportTestScan(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

// ImportScribble appends circuits parsed from free text.
func (c *Controller) ImportScribble(ctx echo.Context) error {
	data, err := readBody(ctx)
	if err != nil {
		return err
	}
	report, err := c.svc.ImportScribble(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

// ListScans returns the archived payloads of a form.
func (c *Controller) ListScans(ctx echo.Context) error {
	scans, err := c.svc.ListScans(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]any{"scans": scans})
}

// Bulk applies a bulk mutation.
func (c *Controller) Bulk(ctx echo.Context) error {
	var req core.BulkRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	n, err := c.svc.Bulk(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, countResponse{Count: n})
}

// Command dispatches a voice action. The body is the action's parameters.
func (c *Controller) Command(ctx echo.Context) error {
	params := voice.Params{}
	if ctx.Request().ContentLength != 0 {
		if err := decodeJSON(ctx, &params); err != nil {
			return err
		}
	}
	action := ctx.Param("action")
	reply, err := c.svc.Command(ctx.Request().Context(), ctx.Param("id"), action, params)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, commandResponse{Action: action, Reply: reply})
}

// Compliance evaluates the rules over a form.
func (c *Controller) Compliance(ctx echo.Context) error {
	res, err := c.svc.Compliance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"satisfactory": !res.HasBlocking(),
		"violations":   res.Violations,
	})
}

// Export writes the schedule to the archive.
func (c *Controller) Export(ctx echo.Context) error {
	exp, err := c.svc.Export(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, exp)
}

// Flush writes pending edits now.
func (c *Controller) Flush(ctx echo.Context) error {
	if err := c.svc.Flush(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// LookupMaxZs returns the derated limit for ?standard=&curve=&rating=.
// An empty maxZs means the inputs are not yet enough to compute one.
func (c *Controller) LookupMaxZs(ctx echo.Context) error {
	standard, curve, rating := ctx.QueryParam("standard"), ctx.QueryParam("curve"), ctx.QueryParam("rating")
	resp := maxZsResponse{
		BSStandard: standard,
		Curve:      curve,
		Rating:     rating,
		MaxZs:      c.calc.Field(standard, curve, rating),
	}
	if v, ok := c.calc.Tabulated(standard, curve, rating); ok {
		resp.Tabulated = maxzs.Format(v)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// ListPresets returns the names of the available presets.
func (c *Controller) ListPresets(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string][]string{"presets": c.svc.Presets().Names()})
}

// OpenAPI serves the API description.
func (c *Controller) OpenAPI(ctx echo.Context) error {
	return ctx.Blob(http.StatusOK, "application/yaml", openapi.Spec())
}
