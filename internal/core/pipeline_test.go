package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/uuid"
)

func runPipeline(t *testing.T, input string, strategy Strategy) (*PipelineResult, error) {
	t.Helper()
	return RunPipeline(context.Background(), strings.NewReader(input), "products.csv", strategy, testRate(t))
}

func TestRunPipeline_HeaderWithValidAndInvalidRow(t *testing.T) {
	input := "name;price;expiration\n" +
		"Apple;$163.88;1/14/2023\n" +
		"Pear;163.88;1/14/2023\n"

	for _, strategy := range []Strategy{StrategyPartial, StrategyAtomic} {
		t.Run(string(strategy), func(t *testing.T) {
			res, err := runPipeline(t, input, strategy)
			if err != nil {
				t.Fatalf("RunPipeline: %v", err)
			}
			if len(res.Products) != 1 {
				t.Fatalf("got %d products, want 1", len(res.Products))
			}
			if len(res.Issues) != 1 {
				t.Fatalf("got %d issues, want 1", len(res.Issues))
			}
			if got := *res.Issues[0].Path; got != "$.row.2" {
				t.Errorf("issue path = %q, want $.row.2", got)
			}
			if res.Batch.Strategy != strategy || res.Batch.Filename != "products.csv" {
				t.Errorf("batch = %+v", res.Batch)
			}
			if res.Products[0].BatchID.UUID != res.Batch.ID {
				t.Errorf("product batch id = %v, want %v", res.Products[0].BatchID.UUID, res.Batch.ID)
			}
		})
	}
}

func TestRunPipeline_Headerless(t *testing.T) {
	input := "Apple;$1.00;1/14/2023\n" +
		"Pear;$2.00;2/1/2024\n"

	res, err := runPipeline(t, input, StrategyPartial)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("unexpected issues: %+v", res.Issues)
	}
	if len(res.Products) != 2 {
		t.Fatalf("got %d products, want 2", len(res.Products))
	}
	if res.Products[0].Name != "Apple" || res.Products[1].Name != "Pear" {
		t.Errorf("names = %q, %q", res.Products[0].Name, res.Products[1].Name)
	}
}

func TestRunPipeline_HeaderlessRowIndexStartsAtFirstRecord(t *testing.T) {
	input := "Apple;bad;1/14/2023\n"

	res, err := runPipeline(t, input, StrategyPartial)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Issues) != 1 || *res.Issues[0].Path != "$.row.1" {
		t.Fatalf("issues = %+v, want one at $.row.1", res.Issues)
	}
}

func TestRunPipeline_HeaderNormalization(t *testing.T) {
	input := " Expiration ;PRICE;Name;extra\n" +
		"1/14/2023;$5.00;Kiwi;ignored\n"

	res, err := runPipeline(t, input, StrategyAtomic)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].Name != "Kiwi" {
		t.Fatalf("products = %+v", res.Products)
	}
	if res.Products[0].Prices.USD.Amount != 500 {
		t.Errorf("USD = %d, want 500", res.Products[0].Prices.USD.Amount)
	}
}

func TestRunPipeline_SkipsEmptyRecordsButCountsThem(t *testing.T) {
	input := "name;price;expiration\n" +
		";;\n" +
		"Apple;$1.00;bad\n"

	res, err := runPipeline(t, input, StrategyPartial)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Products) != 0 {
		t.Fatalf("got %d products, want 0", len(res.Products))
	}
	if len(res.Issues) != 1 || *res.Issues[0].Path != "$.row.2" {
		t.Fatalf("issues = %+v, want one at $.row.2", res.Issues)
	}
}

func TestRunPipeline_ShortRowIsNotFound(t *testing.T) {
	input := "name;price;expiration\n" +
		"Apple;$1.00\n"

	res, err := runPipeline(t, input, StrategyPartial)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Issues) != 1 || res.Issues[0].Type != IssueNotFound {
		t.Fatalf("issues = %+v, want one not_found", res.Issues)
	}
}

func TestRunPipeline_UnexpectedRowErrorBecomesInvalidData(t *testing.T) {
	input := "name;price;expiration\n" +
		"Gold;$90000000000000000.00;1/1/2030\n" +
		"Apple;$1.00;1/1/2030\n"

	res, err := runPipeline(t, input, StrategyPartial)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Products) != 1 {
		t.Fatalf("got %d products, want 1", len(res.Products))
	}
	want := ValidationIssue{Message: "Error in row 1", Type: IssueInvalidData}
	got := res.Issues[0]
	if got.Message != want.Message || got.Type != want.Type || *got.Path != "$.row.1" {
		t.Errorf("issue = %+v, want %+v at $.row.1", got, want)
	}
}

func TestRunPipeline_PanicInRowBecomesInvalidData(t *testing.T) {
	orig := rowParser
	defer func() { rowParser = orig }()
	rowParser = func(rec Record, index int, batchID uuid.UUID, rate ExchangeRate) (RowResult, error) {
		if rec[FieldName] == "boom" {
			panic("unexpected")
		}
		return orig(rec, index, batchID, rate)
	}

	input := "boom;$1.00;1/1/2030\nApple;$1.00;1/1/2030\n"
	res, err := runPipeline(t, input, StrategyPartial)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Products) != 1 || len(res.Issues) != 1 {
		t.Fatalf("products=%d issues=%+v", len(res.Products), res.Issues)
	}
	if res.Issues[0].Type != IssueInvalidData || res.Issues[0].Message != "Error in row 1" {
		t.Errorf("issue = %+v", res.Issues[0])
	}
}

func TestRunPipeline_BOMIsSkipped(t *testing.T) {
	input := "\xEF\xBB\xBFname;price;expiration\nApple;$1.00;1/1/2030\n"

	for _, strategy := range []Strategy{StrategyAtomic, StrategyPartial} {
		res, err := runPipeline(t, input, strategy)
		if err != nil {
			t.Fatalf("%s: RunPipeline: %v", strategy, err)
		}
		if len(res.Products) != 1 || len(res.Issues) != 0 {
			t.Errorf("%s: products=%d issues=%+v", strategy, len(res.Products), res.Issues)
		}
	}
}

func TestRunPipeline_InvalidUTF8(t *testing.T) {
	input := "name;price;expiration\n" +
		"Caf\xe9;$1.00;1/1/2030\n" +
		"Tea;$2.00;1/1/2030\n"

	t.Run("atomic aborts", func(t *testing.T) {
		res, err := runPipeline(t, input, StrategyAtomic)
		if res != nil {
			t.Errorf("expected nil result, got %+v", res)
		}
		assertAbort(t, err, MsgNotUTF8)
	})

	t.Run("partial replaces and continues", func(t *testing.T) {
		res, err := runPipeline(t, input, StrategyPartial)
		if err != nil {
			t.Fatalf("RunPipeline: %v", err)
		}
		if len(res.Issues) != 0 {
			t.Errorf("unexpected issues: %+v", res.Issues)
		}
		if len(res.Products) != 2 {
			t.Fatalf("got %d products, want 2", len(res.Products))
		}
		if res.Products[0].Name != "Caf\uFFFD" {
			t.Errorf("name = %q, want replacement character", res.Products[0].Name)
		}
	})
}

func TestRunPipeline_LenientQuotes(t *testing.T) {
	tests := []struct {
		name      string
		row       string
		wantName  string
		wantIssue bool
	}{
		{
			name:     "bare quote in unquoted field",
			row:      "Monitor 27\";$1.00;1/1/2030\n",
			wantName: "Monitor 27\"",
		},
		{
			name:     "quote mid cell",
			row:      "Big \"Apple\" Pie;$1.00;1/1/2030\n",
			wantName: "Big \"Apple\" Pie",
		},
		{
			name:     "quoted field with delimiter and newline",
			row:      "\"Apple; green\nlarge\";$1.00;1/1/2030\n",
			wantName: "Apple; green\nlarge",
		},
		{
			name:     "escaped quote in quoted field",
			row:      "\"Say \"\"hi\"\"\";$1.00;1/1/2030\n",
			wantName: "Say \"hi\"",
		},
		{
			name:      "unterminated quote runs to end of file",
			row:       "\"Pear;$1.00;1/1/2030\n",
			wantIssue: true,
		},
	}

	for _, tt := range tests {
		for _, strategy := range []Strategy{StrategyAtomic, StrategyPartial} {
			t.Run(tt.name+"/"+string(strategy), func(t *testing.T) {
				input := "name;price;expiration\n" +
					"Apple;$1.00;1/1/2030\n" +
					tt.row

				res, err := runPipeline(t, input, strategy)
				if err != nil {
					t.Fatalf("RunPipeline: %v", err)
				}

				if tt.wantIssue {
					if len(res.Products) != 1 {
						t.Fatalf("got %d products, want 1", len(res.Products))
					}
					if len(res.Issues) != 1 || *res.Issues[0].Path != "$.row.2" {
						t.Fatalf("issues = %+v, want one at $.row.2", res.Issues)
					}
					return
				}

				if len(res.Issues) != 0 {
					t.Fatalf("unexpected issues: %+v", res.Issues)
				}
				if len(res.Products) != 2 {
					t.Fatalf("got %d products, want 2", len(res.Products))
				}
				if got := res.Products[1].Name; got != tt.wantName {
					t.Errorf("name = %q, want %q", got, tt.wantName)
				}
			})
		}
	}
}

func TestRunPipeline_FieldTooLong(t *testing.T) {
	long := strings.Repeat("a", MaxFieldLength+1)
	atLimit := strings.Repeat("\u00e9", MaxFieldLength)

	t.Run("over limit aborts", func(t *testing.T) {
		for _, strategy := range []Strategy{StrategyAtomic, StrategyPartial} {
			input := "name;price;expiration\n" +
				"Apple;$1.00;1/1/2030\n" +
				"x;" + long + ";1/1/2030\n"

			res, err := runPipeline(t, input, strategy)
			if res != nil {
				t.Errorf("%s: expected nil result, got %d products", strategy, len(res.Products))
			}
			assertAbort(t, err, MsgInvalidCSV)
		}
	})

	t.Run("limit counts characters", func(t *testing.T) {
		input := "name;price;expiration\n" +
			"Apple;" + atLimit + ";1/1/2030\n"

		res, err := runPipeline(t, input, StrategyAtomic)
		if err != nil {
			t.Fatalf("RunPipeline: %v", err)
		}
		if len(res.Issues) != 1 || *res.Issues[0].Path != "$.row.1" {
			t.Fatalf("issues = %+v, want one at $.row.1", res.Issues)
		}
	})
}

func TestRunPipeline_EmptyFile(t *testing.T) {
	res, err := runPipeline(t, "", StrategyAtomic)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Products) != 0 || len(res.Issues) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRunPipeline_HeaderOnly(t *testing.T) {
	res, err := runPipeline(t, "name;price;expiration\n", StrategyAtomic)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(res.Products) != 0 || len(res.Issues) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if res.BytesRead != int64(len("name;price;expiration\n")) {
		t.Errorf("BytesRead = %d", res.BytesRead)
	}
}

func TestRunPipeline_ReadErrorPropagates(t *testing.T) {
	readErr := errors.New("connection dropped")
	r := io.MultiReader(strings.NewReader("name;price;expiration\n"), iotest.ErrReader(readErr))

	_, err := RunPipeline(context.Background(), r, "x.csv", StrategyPartial, testRate(t))
	if !errors.Is(err, readErr) {
		t.Fatalf("err = %v, want wrapped %v", err, readErr)
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Error("read error must not be reported as a validation error")
	}
}

func TestRunPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunPipeline(ctx, strings.NewReader("a;$1.00;1/1/2030\n"), "x.csv", StrategyPartial, testRate(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunPipeline_PreservesRowOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("name;price;expiration\n")
	for i := 0; i < 250; i++ {
		if i%3 == 0 {
			b.WriteString("bad;;\n")
			continue
		}
		b.WriteString("item;$1.00;1/1/2030\n")
	}

	res, err := runPipeline(t, b.String(), StrategyPartial)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	for i, issue := range res.Issues {
		want := rowPath(i*3 + 1)
		if *issue.Path != *want {
			t.Fatalf("issue %d path = %s, want %s", i, *issue.Path, *want)
		}
	}
}

func assertAbort(t *testing.T, err error, wantMsg string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if verr.Segment != SegmentMultipartFile {
		t.Errorf("segment = %q, want %q", verr.Segment, SegmentMultipartFile)
	}
	if len(verr.Issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(verr.Issues))
	}
	issue := verr.Issues[0]
	if issue.Message != wantMsg || issue.Type != IssueInvalidFormat || issue.Path != nil {
		t.Errorf("issue = %+v, want %q invalid_format without path", issue, wantMsg)
	}
}
