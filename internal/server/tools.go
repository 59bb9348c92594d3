// internal/server/tools.go
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-ai/internal/analyzer"
	"meal-ai/internal/macros"
	"meal-ai/internal/models"
	"meal-ai/internal/router"
	"meal-ai/internal/shortcuts"
)

type AnalyzeMealParams struct {
	ImageBase64 string `json:"image_base64" description:"JPEG photo of the meal, base64 encoded or as a data URI"`
	Hint        string `json:"hint,omitempty" description:"Optional hint such as portion size or hidden ingredients"`
}

type SearchFoodParams struct {
	Query string `json:"query" description:"Food name, typed or dictated"`
	Hint  string `json:"hint,omitempty" description:"Portion such as \"250 g\""`
}

type ScanBarcodeParams struct {
	Barcode string `json:"barcode" description:"EAN or UPC digits"`
	Hint    string `json:"hint,omitempty" description:"Portion such as \"250 g\""`
}

type ComputeMacrosParams struct {
	Components []macros.Component `json:"components" description:"Foods with their weights in grams"`
}

type GetMealsParams struct {
	StartDate string `json:"start_date,omitempty" description:"Start date for meal query (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"End date for meal query (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of meals to return"`
}

type TestConnectionParams struct {
	Provider string `json:"provider" description:"openai, claude or gemini"`
}

type ShortcutLinkParams struct {
	Carbs   float64 `json:"carbs" description:"Carbohydrates in grams"`
	Protein float64 `json:"protein" description:"Protein in grams"`
	Fat     float64 `json:"fat" description:"Fat in grams"`
}

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type tool struct {
	description string
	params      interface{}
	handler     toolHandler
}

// registerTools fills the tool table and registers every tool with the MCP
// server so SSE clients see the same set as POST /mcp.
func (s *MealServer) registerTools() {
	s.tools = map[string]tool{
		"analyze_meal":    {"Estimate carbs, protein and fat of a meal photo", AnalyzeMealParams{}, s.handleAnalyzeMeal},
		"search_food":     {"Look up a food by name and refine it with AI", SearchFoodParams{}, s.handleSearchFood},
		"scan_barcode":    {"Look up a packaged food by barcode", ScanBarcodeParams{}, s.handleScanBarcode},
		"compute_macros":  {"Compute totals from weighed components using the built-in table", ComputeMacrosParams{}, s.handleComputeMacros},
		"get_meals":       {"List analyzed meals, newest first", GetMealsParams{}, s.handleGetMeals},
		"test_connection": {"Send a minimal prompt to a provider", TestConnectionParams{}, s.handleTestConnection},
		"shortcut_link":   {"Build the Shortcuts link that hands macros to the configured shortcut", ShortcutLinkParams{}, s.handleShortcutLink},
	}
	for name, t := range s.tools {
		s.server.RegisterTool(&protocol.Tool{
			Name:        name,
			Description: t.description,
			InputSchema: inputSchema(t.params),
		}, s.sessionHandler(name, t.handler))
	}
}

// inputSchema derives a JSON schema from the json and description tags of a
// params struct. Fields without omitempty are required.
func inputSchema(params interface{}) protocol.InputSchema {
	schema := protocol.InputSchema{Type: protocol.Object, Properties: map[string]interface{}{}}
	rt := reflect.TypeOf(params)
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		prop := map[string]interface{}{"type": schemaType(f.Type.Kind())}
		if d := f.Tag.Get("description"); d != "" {
			prop["description"] = d
		}
		schema.Properties[name] = prop
		if !strings.Contains(opts, "omitempty") {
			schema.Required = append(schema.Required, name)
		}
	}
	sort.Strings(schema.Required)
	return schema
}

func schemaType(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return "object"
}

// sessionHandler adapts a tool to the MCP server. Failures come back as an
// error result rather than a protocol error, and a cancellation is neutral.
func (s *MealServer) sessionHandler(name string, h toolHandler) server.ToolHandlerFunc {
	return func(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
		result, err := h(s.ctx, req)
		switch {
		case err == nil:
			return result, nil
		case models.IsCancelled(err):
			return createJSONResponse(cancelledBody())
		}

		s.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		body := gin.H{"error": err.Error(), "status": statusFor(err)}
		if kind := models.KindOf(err); kind != "" {
			body["kind"] = kind
		}
		result, mErr := createJSONResponse(body)
		if mErr != nil {
			return nil, mErr
		}
		result.IsError = true
		return result, nil
	}
}

func (s *MealServer) handleMCP(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}

	t, ok := s.tools[request.Name]
	if !ok {
		s.writeError(c, fmt.Errorf("%w: %s", errUnknownTool, request.Name))
		return
	}
	result, err := t.handler(c.Request.Context(), &request)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *MealServer) handleListTools(c *gin.Context) {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]gin.H, 0, len(names))
	for _, name := range names {
		list = append(list, gin.H{"name": name, "description": s.tools[name].description})
	}
	c.JSON(http.StatusOK, gin.H{"tools": list})
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal arguments: %v", errInvalidParams, err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}

// mealResponse is a saved meal plus the compact whole-gram macros. Macros
// is left out when all three round to zero.
type mealResponse struct {
	*models.Meal
	Macros  *shortcuts.Payload `json:"macros,omitempty"`
	Summary string             `json:"summary,omitempty"`
	Base    *models.BaseInfo   `json:"base,omitempty"`
	Refined bool               `json:"refined"`
}

func newMealResponse(meal *models.Meal) *mealResponse {
	return &mealResponse{Meal: meal, Macros: macrosPayload(meal.Result.Totals), Summary: meal.Result.Summary()}
}

func macrosPayload(totals models.MacroTriple) *shortcuts.Payload {
	payload, ok := shortcuts.NewPayload(totals)
	if !ok {
		return nil
	}
	return &payload
}

func (s *MealServer) handleAnalyzeMeal(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AnalyzeMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	image, err := decodeImage(params.ImageBase64)
	if err != nil {
		return nil, err
	}

	resp, err := s.analyzeImage(ctx, image, params.Hint)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(resp)
}

// decodeImage accepts plain base64 or a data URI.
func decodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: image_base64 is required", errInvalidParams)
	}
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	image, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: image_base64: %v", errInvalidParams, err)
	}
	if len(image) > maxImageBytes {
		return nil, errImageTooLarge
	}
	return image, nil
}

func (s *MealServer) analyzeImage(ctx context.Context, image []byte, hint string) (*mealResponse, error) {
	out, err := s.analyzer.Analyze(ctx, analyzer.Input{Image: image, Hint: hint})
	if err != nil {
		return nil, err
	}

	meal := &models.Meal{
		ID:         uuid.NewString(),
		Source:     models.SourceCamera,
		Vendor:     string(out.Vendor),
		Query:      strings.TrimSpace(hint),
		Result:     *out.Result,
		Recomputed: out.Recomputed,
		CreatedAt:  s.now(),
	}
	if err := s.meals.SaveMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}
	resp := newMealResponse(meal)
	resp.Refined = true
	return resp, nil
}

func (s *MealServer) handleSearchFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SearchFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	resp, err := s.search(ctx, analyzer.Query{Kind: router.InputText, Text: params.Query, Hint: params.Hint}, models.SourceText)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(resp)
}

func (s *MealServer) handleScanBarcode(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ScanBarcodeParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	resp, err := s.search(ctx, analyzer.Query{Kind: router.InputBarcode, Text: params.Barcode, Hint: params.Hint}, models.SourceBarcode)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(resp)
}

func (s *MealServer) search(ctx context.Context, q analyzer.Query, source models.InputSource) (*mealResponse, error) {
	res, err := s.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	meal := &models.Meal{
		ID:        uuid.NewString(),
		Source:    source,
		Vendor:    string(res.Vendor),
		Query:     strings.TrimSpace(q.Text),
		Result:    *res.Result,
		CreatedAt: s.now(),
	}
	if err := s.meals.SaveMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}
	resp := newMealResponse(meal)
	resp.Base, resp.Refined = res.Base, res.Refined
	return resp, nil
}

func (s *MealServer) handleComputeMacros(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ComputeMacrosParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if len(params.Components) == 0 {
		return nil, fmt.Errorf("%w: components are required", errInvalidParams)
	}

	totals := macros.ComputeTotals(params.Components)
	weight := macros.TotalWeight(params.Components)
	classes := make([]string, len(params.Components))
	for i, comp := range params.Components {
		classes[i] = macros.ResolveClass(comp.Name)
	}
	resp := map[string]interface{}{
		"totals":         totals,
		"per100g":        macros.Per100g(totals, weight),
		"total_weight_g": weight,
		"classes":        classes,
	}
	if payload := macrosPayload(totals); payload != nil {
		resp["macros"] = payload
	}
	return createJSONResponse(resp)
}

// handleGetMeals retrieves meals from storage
func (s *MealServer) handleGetMeals(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMealsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	meals, err := s.listMeals(ctx, params)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(meals)
}

func (s *MealServer) listMeals(ctx context.Context, params GetMealsParams) ([]*models.Meal, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	meals, err := s.meals.GetMeals(ctx, params.StartDate, params.EndDate, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve meals: %w", err)
	}
	if meals == nil {
		meals = []*models.Meal{}
	}
	return meals, nil
}

func (s *MealServer) handleTestConnection(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params TestConnectionParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	vendor, err := models.ParseVendor(params.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	reply, err := s.analyzer.TestConnection(ctx, vendor)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(map[string]interface{}{
		"provider": vendor,
		"name":     vendor.DisplayName(),
		"ok":       true,
		"reply":    reply,
	})
}

func (s *MealServer) handleShortcutLink(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ShortcutLinkParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	payload, ok := shortcuts.NewPayload(models.MacroTriple{CarbsG: params.Carbs, ProteinG: params.Protein, FatG: params.Fat})
	st := s.settings.Snapshot()
	link, err := shortcuts.RunURL(st.ShortcutName, payload, st.ShortcutSendJSON)
	if err != nil {
		return nil, err
	}
	resp := map[string]interface{}{"url": link}
	if ok {
		resp["payload"] = payload
	}
	return createJSONResponse(resp)
}
