package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

// DefaultNERModel detects PER, ORG, LOC and MISC entities.
const DefaultNERModel = "KnightsAnalytics/distilbert-NER"

// Annotator turns raw article text into an annotated document.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*model.Document, error)
	Close() error
}

// EntitySpan is a named entity found by a tagger, with byte offsets into the text.
type EntitySpan struct {
	Label string
	Start int
	End   int
	Score float32
}

type nerFunc func(text string) ([]EntitySpan, error)

// HugotAnnotator tags tokens with a hugot token classification pipeline.
// It produces sentences, tokens and NER tags only. Dependencies, coreference
// chains and open triples are left empty.
type HugotAnnotator struct {
	session *hugot.Session
	ner     nerFunc
}

var _ Annotator = (*HugotAnnotator)(nil)

// NewHugotAnnotator prepares the model (downloading it if needed) and builds
// the NER pipeline on the pure Go backend.
func NewHugotAnnotator(modelName string) (*HugotAnnotator, error) {
	if modelName == "" {
		modelName = DefaultNERModel
	}

	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, helper.NewError("prepare model", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewError("create hugot session", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{model.NoEntityTag}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, helper.NewError("create NER pipeline", err)
	}

	run := func(text string) ([]EntitySpan, error) {
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}
		if len(result.Entities) == 0 {
			return nil, nil
		}

		spans := make([]EntitySpan, 0, len(result.Entities[0]))
		for _, entity := range result.Entities[0] {
			spans = append(spans, EntitySpan{
				Label: entity.Entity,
				Start: int(entity.Start),
				End:   int(entity.End),
				Score: entity.Score,
			})
		}
		return spans, nil
	}

	return &HugotAnnotator{session: session, ner: run}, nil
}

// Annotate tags each sentence separately and projects the entity spans onto
// the tokens they overlap.
func (a *HugotAnnotator) Annotate(ctx context.Context, text string) (*model.Document, error) {
	doc := &model.Document{}

	for i, s := range SplitSentences(text) {
		if err := ctx.Err(); err != nil {
			return nil, helper.NewError("annotate", err)
		}

		spans, err := a.ner(s.Text)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("tag sentence %d", i), err)
		}

		offsets := Tokenize(Span{Text: s.Text})
		sentence := model.Sentence{Index: i}
		for j, tok := range offsets {
			sentence.Tokens = append(sentence.Tokens, model.Token{
				Index: j,
				Text:  tok.Text,
				Lemma: strings.ToLower(tok.Text),
				NER:   model.NoEntityTag,
			})
		}
		ProjectLabels(sentence.Tokens, offsets, spans)
		doc.Sentences = append(doc.Sentences, sentence)
	}

	return doc, nil
}

// ProjectLabels sets BIO tags on tokens overlapping an entity span. The first
// token of a span gets B-, the following ones I-.
func ProjectLabels(tokens []model.Token, offsets []Span, entities []EntitySpan) {
	for _, e := range entities {
		label := strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(e.Label, "B-"), "I-"))
		if label == "" || label == model.NoEntityTag {
			continue
		}

		first := true
		for i := range tokens {
			if i >= len(offsets) {
				break
			}
			if offsets[i].End <= e.Start || offsets[i].Start >= e.End {
				continue
			}
			if first {
				tokens[i].NER = "B-" + label
				first = false
			} else {
				tokens[i].NER = "I-" + label
			}
		}
	}
}

// Close releases the hugot session.
func (a *HugotAnnotator) Close() error {
	if a.session == nil {
		return nil
	}
	return a.session.Destroy()
}
