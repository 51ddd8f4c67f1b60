package acceptance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/latticehq/rootcause/internal/analysis"
	"github.com/latticehq/rootcause/internal/corpus"
	"github.com/latticehq/rootcause/internal/retrieval"
)

// TestContext holds state between steps
type TestContext struct {
	ctx     context.Context
	dataDir string
	store   *corpus.Store

	lastResults     []retrieval.Result
	lastRetrieveErr error
	lastExplanation *analysis.Explanation
	lastQuery       string
}

// InitializeScenario sets up step definitions and per-scenario isolation
func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &TestContext{ctx: context.Background()}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "rootcause-acceptance-*")
		if err != nil {
			return ctx, err
		}
		tc.dataDir = dir
		os.Setenv("ROOTCAUSE_DATA_DIR", dir)
		os.Setenv("ROOTCAUSE_EMBEDDINGS", "local")

		store, err := corpus.NewStore()
		if err != nil {
			return ctx, err
		}
		tc.store = store
		tc.lastResults = nil
		tc.lastRetrieveErr = nil
		tc.lastExplanation = nil
		return ctx, nil
	})

	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if tc.store != nil {
			tc.store.Close()
		}
		os.RemoveAll(tc.dataDir)
		os.Unsetenv("ROOTCAUSE_DATA_DIR")
		os.Unsetenv("ROOTCAUSE_EMBEDDINGS")
		return ctx, nil
	})

	sc.Step(`^an empty corpus$`, tc.emptyCorpus)
	sc.Step(`^a corpus with the sample conversations$`, tc.sampleCorpus)
	sc.Step(`^a corpus of identical conversations "([^"]*)"$`, tc.identicalCorpus)

	sc.Step(`^I ask "([^"]*)"$`, tc.ask)
	sc.Step(`^I retrieve the top (\d+) transcripts for "([^"]*)"$`, tc.retrieve)

	sc.Step(`^the outcome should be "([^"]*)"$`, tc.checkOutcome)
	sc.Step(`^the primary cause should contain "([^"]*)"$`, tc.checkPrimaryCause)
	sc.Step(`^a supporting factor should contain "([^"]*)"$`, tc.checkSupportingFactor)
	sc.Step(`^at most (\d+) evidence turns should be cited$`, tc.checkEvidenceCap)
	sc.Step(`^the confidence should be between ([\d.]+) and ([\d.]+)$`, tc.checkConfidenceRange)
	sc.Step(`^asking the same question again yields the same explanation$`, tc.checkIdempotent)

	sc.Step(`^the top result should be "([^"]*)"$`, tc.checkTopResult)
	sc.Step(`^the results should be "([^"]*)"$`, tc.checkResultOrder)
	sc.Step(`^retrieving again returns the same order$`, tc.checkStableOrder)
	sc.Step(`^retrieval should fail with an empty corpus error$`, tc.checkEmptyCorpusError)
	sc.Step(`^retrieval should fail with an invalid query error$`, tc.checkInvalidQueryError)
}

// engine builds a lexical-only engine so scores are exactly reproducible
func (tc *TestContext) engine() *retrieval.Engine {
	return retrieval.NewEngine(tc.store, retrieval.Options{DisableSemantic: true})
}

func (tc *TestContext) emptyCorpus() error {
	return nil
}

func (tc *TestContext) sampleCorpus() error {
	batch := []corpus.Transcript{
		{
			ID: "conv_escalation",
			Metadata: map[string]string{
				"intent":          "escalation",
				"reason_for_call": "repeated delivery failures",
			},
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerAgent, Text: "Thank you for calling, how can I help?"},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "I have been waiting for three weeks and this is unacceptable."},
				{TurnID: 2, Speaker: corpus.SpeakerAgent, Text: "I am sorry to hear that."},
				{TurnID: 3, Speaker: corpus.SpeakerCustomer, Text: "I want to speak with a supervisor right now."},
			},
		},
		{
			ID: "conv_fraud",
			Metadata: map[string]string{
				"intent":          "fraud",
				"reason_for_call": "unauthorized transaction",
			},
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerAgent, Text: "I see a fraud alert on your account."},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "I did not make this purchase. There is a charge of $450.00 on my card."},
				{TurnID: 2, Speaker: corpus.SpeakerAgent, Text: "I have blocked your card while we investigate."},
			},
		},
		{
			ID: "conv_delivery",
			Metadata: map[string]string{
				"intent":          "delivery",
				"reason_for_call": "missing delivery",
			},
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerAgent, Text: "How can I help you today?"},
				{TurnID: 1, Speaker: corpus.SpeakerCustomer, Text: "Tracking shows delivered but my package never arrived."},
				{TurnID: 2, Speaker: corpus.SpeakerAgent, Text: "I will open an investigation for you."},
			},
		},
	}
	return tc.store.AddBatch(tc.ctx, batch)
}

func (tc *TestContext) identicalCorpus(idList string) error {
	for _, id := range strings.Split(idList, ",") {
		err := tc.store.Add(tc.ctx, corpus.Transcript{
			ID: strings.TrimSpace(id),
			Turns: []corpus.Turn{
				{TurnID: 0, Speaker: corpus.SpeakerCustomer, Text: "my refund is late"},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (tc *TestContext) ask(query string) error {
	tc.lastQuery = query

	results, err := tc.engine().Retrieve(tc.ctx, query, 3)
	if err != nil {
		return err
	}

	transcripts := make([]*corpus.Transcript, 0, len(results))
	for _, r := range results {
		t, err := tc.store.Get(tc.ctx, r.TranscriptID)
		if err != nil {
			return err
		}
		transcripts = append(transcripts, t)
	}

	analyzer, err := analysis.NewDefaultAnalyzer()
	if err != nil {
		return err
	}
	tc.lastExplanation, err = analyzer.Analyze(query, transcripts)
	return err
}

func (tc *TestContext) retrieve(k int, query string) error {
	tc.lastResults, tc.lastRetrieveErr = tc.engine().Retrieve(tc.ctx, query, k)
	tc.lastQuery = query
	return nil
}

func (tc *TestContext) checkOutcome(want string) error {
	if tc.lastExplanation == nil {
		return fmt.Errorf("no explanation produced")
	}
	if string(tc.lastExplanation.Outcome) != want {
		return fmt.Errorf("outcome = %s, want %s", tc.lastExplanation.Outcome, want)
	}
	return nil
}

func (tc *TestContext) checkPrimaryCause(want string) error {
	if tc.lastExplanation == nil {
		return fmt.Errorf("no explanation produced")
	}
	if !strings.Contains(tc.lastExplanation.PrimaryCause, want) {
		return fmt.Errorf("primary cause %q does not contain %q", tc.lastExplanation.PrimaryCause, want)
	}
	return nil
}

func (tc *TestContext) checkSupportingFactor(want string) error {
	if tc.lastExplanation == nil {
		return fmt.Errorf("no explanation produced")
	}
	for _, f := range tc.lastExplanation.SupportingFactors {
		if strings.Contains(f, want) {
			return nil
		}
	}
	return fmt.Errorf("no supporting factor contains %q in %v", want, tc.lastExplanation.SupportingFactors)
}

func (tc *TestContext) checkEvidenceCap(max int) error {
	if tc.lastExplanation == nil {
		return fmt.Errorf("no explanation produced")
	}
	if len(tc.lastExplanation.Evidence) > max {
		return fmt.Errorf("%d evidence turns exceed cap %d", len(tc.lastExplanation.Evidence), max)
	}
	if len(tc.lastExplanation.Evidence) == 0 {
		return fmt.Errorf("expected at least one evidence turn")
	}
	return nil
}

func (tc *TestContext) checkConfidenceRange(lo, hi string) error {
	if tc.lastExplanation == nil {
		return fmt.Errorf("no explanation produced")
	}
	low, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return err
	}
	high, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return err
	}
	c := tc.lastExplanation.Confidence
	if c < low || c > high {
		return fmt.Errorf("confidence %f out of [%f, %f]", c, low, high)
	}
	return nil
}

func (tc *TestContext) checkIdempotent() error {
	if tc.lastExplanation == nil {
		return fmt.Errorf("no explanation produced")
	}
	first := tc.lastExplanation

	if err := tc.ask(tc.lastQuery); err != nil {
		return err
	}

	diff := cmp.Diff(first, tc.lastExplanation,
		cmpopts.IgnoreFields(analysis.Explanation{}, "ID", "GeneratedAt"))
	if diff != "" {
		return fmt.Errorf("explanations differ (-first +second):\n%s", diff)
	}
	return nil
}

func (tc *TestContext) checkTopResult(want string) error {
	if tc.lastRetrieveErr != nil {
		return fmt.Errorf("retrieval failed: %v", tc.lastRetrieveErr)
	}
	if len(tc.lastResults) == 0 {
		return fmt.Errorf("no results")
	}
	if tc.lastResults[0].TranscriptID != want {
		return fmt.Errorf("top result = %s, want %s", tc.lastResults[0].TranscriptID, want)
	}
	return nil
}

func (tc *TestContext) checkResultOrder(want string) error {
	if tc.lastRetrieveErr != nil {
		return fmt.Errorf("retrieval failed: %v", tc.lastRetrieveErr)
	}
	wantIDs := strings.Split(want, ",")
	if len(tc.lastResults) != len(wantIDs) {
		return fmt.Errorf("got %d results, want %d", len(tc.lastResults), len(wantIDs))
	}
	for i, id := range wantIDs {
		if tc.lastResults[i].TranscriptID != strings.TrimSpace(id) {
			return fmt.Errorf("results[%d] = %s, want %s", i, tc.lastResults[i].TranscriptID, id)
		}
	}
	return nil
}

func (tc *TestContext) checkStableOrder() error {
	first := make([]string, len(tc.lastResults))
	for i, r := range tc.lastResults {
		first[i] = r.TranscriptID
	}

	results, err := tc.engine().Retrieve(tc.ctx, tc.lastQuery, len(first))
	if err != nil {
		return err
	}
	for i, r := range results {
		if r.TranscriptID != first[i] {
			return fmt.Errorf("order changed between runs at %d: %s vs %s", i, first[i], r.TranscriptID)
		}
	}
	return nil
}

func (tc *TestContext) checkEmptyCorpusError() error {
	if !errors.Is(tc.lastRetrieveErr, retrieval.ErrEmptyCorpus) {
		return fmt.Errorf("error = %v, want ErrEmptyCorpus", tc.lastRetrieveErr)
	}
	return nil
}

func (tc *TestContext) checkInvalidQueryError() error {
	if !errors.Is(tc.lastRetrieveErr, retrieval.ErrInvalidQuery) {
		return fmt.Errorf("error = %v, want ErrInvalidQuery", tc.lastRetrieveErr)
	}
	return nil
}
