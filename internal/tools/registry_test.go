package tools

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:     name,
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			q, _ := args["query"].(string)
			return "echo:" + q, nil
		},
		Schema: ToolSchema{
			Required: []string{"query"},
			Properties: map[string]Property{
				"query": {Type: "string", Description: "text to echo"},
			},
		},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Lookup("echo")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Priority != defaultPriority {
		t.Errorf("default priority = %d, want %d", got.Priority, defaultPriority)
	}
	if _, err := reg.Lookup("missing"); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool("dupe")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := reg.Register(echoTool("dupe")); !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("expected ErrToolAlreadyRegistered, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty name",
			tool:    &Tool{Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
			wantErr: ErrToolNameEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Name: "broken"},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.tool); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if names := reg.Names(); len(names) != 0 {
		t.Errorf("invalid tools were registered: %v", names)
	}
}

func TestExecute(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatal(err)
	}

	res, err := reg.Execute(context.Background(), "echo", map[string]any{"query": "hi"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Result != "echo:hi" || res.ToolName != "echo" {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := reg.Execute(context.Background(), "nope", nil); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}

	res, err = reg.Execute(context.Background(), "echo", map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("expected ErrMissingRequiredArg, got %v", err)
	}
	if res == nil || res.Error == nil {
		t.Errorf("argument failure should still produce a result carrying the error: %+v", res)
	}

	if _, err := reg.Execute(context.Background(), "echo", map[string]any{"query": 42}); !errors.Is(err, ErrInvalidArgType) {
		t.Errorf("expected ErrInvalidArgType, got %v", err)
	}
}

func TestCategoryOrdering(t *testing.T) {
	reg := NewRegistry()
	low := echoTool("low")
	low.Category = CategoryResearch
	low.Priority = 10
	high := echoTool("high")
	high.Category = CategoryResearch
	high.Priority = 90
	for _, tool := range []*Tool{low, high, echoTool("general")} {
		if err := reg.Register(tool); err != nil {
			t.Fatal(err)
		}
	}

	got := reg.InCategory(CategoryResearch)
	if len(got) != 2 || got[0].Name != "high" || got[1].Name != "low" {
		t.Errorf("InCategory order wrong: %v", got)
	}
	best, err := reg.Best(CategoryResearch)
	if err != nil || best.Name != "high" {
		t.Errorf("Best() = %v, %v", best, err)
	}
	if want := []string{"general", "high", "low"}; !reflect.DeepEqual(reg.Names(), want) {
		t.Errorf("Names() = %v, want %v", reg.Names(), want)
	}
}

func TestBestEmptyCategory(t *testing.T) {
	if _, err := NewRegistry().Best(CategoryResearch); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}
