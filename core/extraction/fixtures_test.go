package extraction

import (
	"strings"

	"github.com/siherrmann/newsgraph/model"
)

// sentence builds a sentence from "word/TAG" tokens. Untagged words have no entity tag.
func sentence(index int, tagged string) model.Sentence {
	s := model.Sentence{Index: index}
	for i, field := range strings.Fields(tagged) {
		text, tag, _ := strings.Cut(field, "/")
		s.Tokens = append(s.Tokens, model.Token{Index: i, Text: text, NER: tag})
	}
	return s
}

func dep(relation string, governor int, dependent int) model.Dependency {
	return model.Dependency{Relation: relation, Governor: governor, Dependent: dependent}
}

// elonMuskDocument is "Elon Musk founded SpaceX. He leads the company."
func elonMuskDocument() *model.Document {
	s0 := sentence(0, "Elon/PERSON Musk/PERSON founded SpaceX/ORGANIZATION .")
	s0.Dependencies = []model.Dependency{
		dep("flat", 1, 0),
		dep("nsubj", 2, 1),
		dep("obj", 2, 3),
	}
	s0.Triples = []model.OpenTriple{
		{Subject: "Elon Musk", Relation: "founded", Object: "SpaceX", SubjectStart: 0, ObjectStart: 3},
	}
	s0.NounPhrases = []string{"Elon Musk", "SpaceX"}

	s1 := sentence(1, "He leads the company .")
	s1.Dependencies = []model.Dependency{
		dep("nsubj", 1, 0),
		dep("obj", 1, 3),
		dep("det", 3, 2),
	}
	s1.Triples = []model.OpenTriple{
		{Subject: "He", Relation: "leads", Object: "SpaceX", SubjectStart: 0, ObjectStart: 2},
	}
	s1.NounPhrases = []string{"He", "the  company"}

	return &model.Document{
		Sentences: []model.Sentence{s0, s1},
		Coreferences: []model.CorefChain{{
			Representative: model.CorefMention{Text: "Elon Musk", SentenceIndex: 0, TokenIndex: 1},
			Mentions: []model.CorefMention{
				{Text: "Elon Musk", SentenceIndex: 0, TokenIndex: 1},
				{Text: "He", SentenceIndex: 1, TokenIndex: 0},
			},
		}},
	}
}
