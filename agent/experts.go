package agent

import (
	"context"
	"fmt"

	"github.com/etnz/folio/date"
	"github.com/etnz/folio/docs"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and of solving the user's request.

			Learn about the experts' skills from the Tools and ask them questions.
			They are at your service and keep the context of your previous questions.

			The user is here to understand the performance of their portfolio: what they hold,
			what they gained and how it compares to a benchmark.

			Devise a plan of questions to ask each expert and come up with the best response.
			The user assumes you know their symbols, ask the Accountant first.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert grounded on Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader, aware of the financial products and institutions
		and of the latest news about funds and companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in trading, you can search anything related to
			financial institutions, companies, markets and funds. Use Google Search to
			ground your assertions.
			Relate the latest news to the user's request.
			`}}},
		},
	}
}

// Reports computes the portfolio reports as markdown.
type Reports interface {
	Holdings(ctx context.Context, on date.Date) (string, error)
	Gains(ctx context.Context, period date.Period, on date.Date) (string, error)
	Audit(ctx context.Context) (string, error)
}

// NewAccountant returns the expert reading the user's portfolio through r.
func NewAccountant(r Reports) *Expert {
	lib := Functions(r)
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant, in charge of the user's portfolio.
		They can compute the holdings on a day, the gains over a period and audit how the ledger was read.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are the accountant of the user's portfolio.
			Use the Tools to extract figures about the user's portfolio: holdings,
			gains over a period and the audit of ignored or unmapped ledger rows.
			Other experts may ask approximate questions, figure out what they meant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a Function with closures.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func dateSchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeString,
		Description: description + " Format is YYYY-MM-DD, today is the default.",
	}
}

func markdown(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// Functions are the accountant's tools over r.
func Functions(r Reports) []*Func {
	holdings, _ := docs.Topic("holdings")
	gains, _ := docs.Topic("gains")
	audit, _ := docs.Topic("audit")
	return []*Func{
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Holdings",
				Description: "Holdings lists the symbols held on a day with their quantity, price, cost and value.\n\n" + holdings,
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"date": dateSchema("The day of the holdings.")},
				},
				Response: markdown("A markdown table of the holdings in base currency."),
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				on, err := parseDate(args)
				if err != nil {
					return failure(id, "Holdings", err)
				}
				md, err := r.Holdings(ctx, on)
				if err != nil {
					return failure(id, "Holdings", err)
				}
				return output(id, "Holdings", md)
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Gains",
				Description: "Gains splits the performance per symbol into realized, unrealized and income over a period.\n\n" + gains,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"period": {
							Type:        genai.TypeString,
							Description: "The reporting period.",
							Enum:        []string{"daily", "weekly", "monthly", "quarterly", "yearly"},
						},
						"date": dateSchema("A day in the reported period."),
					},
				},
				Response: markdown("A markdown table of the gains per symbol in base currency."),
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				on, err := parseDate(args)
				if err != nil {
					return failure(id, "Gains", err)
				}
				period := date.Monthly
				if raw, ok := args["period"].(string); ok {
					if period, err = date.ParsePeriod(raw); err != nil {
						return failure(id, "Gains", err)
					}
				}
				md, err := r.Gains(ctx, period, on)
				if err != nil {
					return failure(id, "Gains", err)
				}
				return output(id, "Gains", md)
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Audit",
				Description: "Audit lists the ledger rows that were not applied as is: unmapped types, ignored rows and suppressed splits.\n\n" + audit,
				Response:    markdown("A markdown audit of the ledger."),
			},
			Func: func(ctx context.Context, id string, _ map[string]any) *genai.FunctionResponse {
				md, err := r.Audit(ctx)
				if err != nil {
					return failure(id, "Audit", err)
				}
				return output(id, "Audit", md)
			},
		},
	}
}

func parseDate(args map[string]any) (date.Date, error) {
	raw, ok := args["date"]
	if !ok {
		return date.Today(), nil
	}
	s, ok := raw.(string)
	if !ok {
		return date.Today(), fmt.Errorf("argument 'date' is not a string as expected but %T", raw)
	}
	on, err := date.Parse(s)
	if err != nil {
		return date.Today(), fmt.Errorf("argument 'date' must be a YYYY-MM-DD date: %w", err)
	}
	return on, nil
}
