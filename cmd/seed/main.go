package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"veenoe/internal/config"
	"veenoe/internal/model"
	"veenoe/internal/repository"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDBName)
	questionRepo := repository.NewQuestionRepo(db)

	questions := []model.QuestionBankEntry{
		{
			Topic:        "Python Programming",
			ClassLevel:   10,
			Difficulty:   1,
			QuestionText: "What is a variable, and how do you assign a value to one in Python?",
			Keywords:     []string{"name", "assignment", "equals"},
		},
		{
			Topic:        "Python Programming",
			ClassLevel:   10,
			Difficulty:   2,
			QuestionText: "Explain the difference between a list and a tuple.",
			Keywords:     []string{"mutable", "immutable", "brackets", "parentheses"},
		},
		{
			Topic:        "Python Programming",
			ClassLevel:   10,
			Difficulty:   3,
			QuestionText: "How does a for loop over range(5) behave, and what values does it produce?",
			Keywords:     []string{"iteration", "0 to 4", "range"},
		},
		{
			Topic:        "Python Programming",
			ClassLevel:   10,
			Difficulty:   4,
			QuestionText: "What is recursion? Walk through how a recursive factorial function evaluates factorial(3).",
			Keywords:     []string{"base case", "calls itself", "stack"},
		},
		{
			Topic:        "Python Programming",
			ClassLevel:   10,
			Difficulty:   5,
			QuestionText: "Compare the time complexity of searching in a list versus a dictionary, and explain why they differ.",
			Keywords:     []string{"linear", "constant", "hash"},
		},
		{
			Topic:        "Photosynthesis",
			ClassLevel:   8,
			Difficulty:   1,
			QuestionText: "What do plants need to perform photosynthesis?",
			Keywords:     []string{"sunlight", "water", "carbon dioxide", "chlorophyll"},
		},
		{
			Topic:        "Photosynthesis",
			ClassLevel:   8,
			Difficulty:   3,
			QuestionText: "Describe the role of chlorophyll and where in the cell photosynthesis happens.",
			Keywords:     []string{"chloroplast", "absorbs light", "green pigment"},
		},
	}

	for i := range questions {
		if err := questionRepo.Create(ctx, &questions[i]); err != nil {
			log.Fatalf("Failed to seed question %d: %v", i+1, err)
		}
	}

	fmt.Printf("Seeded %d question bank entries into %s\n", len(questions), cfg.MongoDBName)
}
