package main

import (
	"encoding/json"

	"github.com/stemsi/ujianku-backend/internal/config"
	"github.com/stemsi/ujianku-backend/internal/logger"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/repository"
)

// Seeds the question bank with a handful of sample questions so a fresh
// install has something to practice on. Existing questions are overwritten
// by id; everything else is left alone.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	repo, err := repository.NewQuestionRepository(cfg.QuestionsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionsPath).Msg("Failed to open question bank")
	}

	for _, q := range sampleQuestions() {
		if err := repo.Upsert(&q); err != nil {
			log.Fatal().Err(err).Str("question_id", q.ID).Msg("Failed to seed question")
		}
		log.Info().Str("question_id", q.ID).Msg("Question seeded")
	}

	log.Info().Str("path", cfg.QuestionsPath).Msg("Seeding complete")
}

func sampleQuestions() []model.Question {
	return []model.Question{
		{
			ID:          "S001",
			Type:        model.QuestionTypeSingle,
			Difficulty:  1,
			Content:     "Berapakah hasil dari 7 x 8?",
			Options:     []string{"A. 54", "B. 56", "C. 58", "D. 64"},
			Answer:      json.RawMessage(`"B"`),
			Explanation: "7 x 8 = 56.",
			Enabled:     true,
			Tags:        []string{"matematika"},
		},
		{
			ID:          "M001",
			Type:        model.QuestionTypeMultiple,
			Difficulty:  2,
			Content:     "Manakah di antara berikut yang merupakan bilangan prima?",
			Options:     []string{"A. 2", "B. 9", "C. 11", "D. 15"},
			Answer:      json.RawMessage(`["A","C"]`),
			Explanation: "2 dan 11 adalah bilangan prima; 9 dan 15 bukan.",
			Enabled:     true,
			Tags:        []string{"matematika"},
		},
		{
			ID:          "J001",
			Type:        model.QuestionTypeJudge,
			Difficulty:  1,
			Content:     "Air mendidih pada suhu 100 derajat Celsius di tekanan normal.",
			Answer:      json.RawMessage(`true`),
			Explanation: "Pada tekanan 1 atm, titik didih air adalah 100 derajat Celsius.",
			Enabled:     true,
			Tags:        []string{"ipa"},
		},
		{
			ID:          "B001",
			Type:        model.QuestionTypeBlank,
			Difficulty:  2,
			Content:     "Ibu kota Indonesia adalah ____.",
			Answer:      json.RawMessage(`"Jakarta"`),
			Explanation: "Jakarta adalah ibu kota Indonesia.",
			Enabled:     true,
			Tags:        []string{"ips"},
		},
		{
			ID:          "E001",
			Type:        model.QuestionTypeEssay,
			Difficulty:  3,
			Content:     "Jelaskan proses fotosintesis secara singkat.",
			Answer:      json.RawMessage(`"fotosintesis klorofil cahaya"`),
			Explanation: "Fotosintesis mengubah air dan karbon dioksida menjadi glukosa dan oksigen dengan bantuan cahaya dan klorofil.",
			Enabled:     true,
			Tags:        []string{"ipa"},
		},
	}
}
