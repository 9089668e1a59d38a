package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/forkful/forkful/backend/internal/database"
	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/internal/recipe"
	"github.com/forkful/forkful/backend/internal/recipe/repository"
	"github.com/forkful/forkful/backend/internal/recipe/service"
	"github.com/forkful/forkful/backend/internal/users"
	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/logger"
)

type seedRecipe struct {
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
	Tags         []string
}

func listJSON(v []string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func (s seedRecipe) payload() recipe.RawPayload {
	return recipe.RawPayload{
		Title:        s.Title,
		Description:  s.Description,
		Ingredients:  listJSON(s.Ingredients),
		Instructions: listJSON(s.Instructions),
		Tags:         listJSON(s.Tags),
	}
}

var demoRecipes = []seedRecipe{
	{
		Title:        "Chocolate Chip Cookies",
		Description:  "Crisp edges, soft centres.",
		Ingredients:  []string{"225g butter", "200g brown sugar", "2 eggs", "300g flour", "200g chocolate chips"},
		Instructions: []string{"Cream butter and sugar.", "Beat in the eggs.", "Fold in flour and chips.", "Bake at 180C for 11 minutes."},
		Tags:         []string{"dessert", "baking", "chocolate"},
	},
	{
		Title:        "Tomato Basil Pasta",
		Description:  "A weeknight staple.",
		Ingredients:  []string{"400g spaghetti", "1 can tomatoes", "2 cloves garlic", "fresh basil", "olive oil"},
		Instructions: []string{"Boil the pasta.", "Simmer garlic and tomatoes in oil.", "Toss with pasta and basil."},
		Tags:         []string{"dinner", "vegetarian", "pasta"},
	},
	{
		Title:        "Overnight Oats",
		Ingredients:  []string{"50g oats", "150ml milk", "1 tbsp honey"},
		Instructions: []string{"Mix everything in a jar.", "Refrigerate overnight."},
		Tags:         []string{"breakfast", "quick"},
	},
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert a demo user and demo recipes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Value: "demo", Usage: "demo account username"},
			&cli.StringFlag{Name: "email", Value: "demo@example.com", Usage: "demo account email"},
			&cli.StringFlag{Name: "password", Value: "demo1234", Usage: "demo account password"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, db, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			userSvc := users.NewService(users.NewMongoUserRepository(db.Collection(database.UsersCollection)), nil)
			recipeSvc := service.NewService(repository.NewMongoRepo(db), nil, userSvc)

			author, err := demoUser(ctx, userSvc, users.RegisterInput{
				Username: cmd.String("username"),
				Email:    cmd.String("email"),
				Password: cmd.String("password"),
			})
			if err != nil {
				return err
			}
			for _, r := range demoRecipes {
				d, err := recipeSvc.Create(ctx, author.ID, r.payload(), nil)
				if err != nil {
					return fmt.Errorf("seed %q: %w", r.Title, err)
				}
				logger.Infof("seeded recipe %s (%s)", d.ID.Hex(), d.Title)
			}
			return nil
		},
	}
}

// demoUser registers the account, or logs into it when it already exists.
func demoUser(ctx context.Context, svc *users.Service, in users.RegisterInput) (*models.User, error) {
	u, err := svc.Register(ctx, in)
	if errors.Is(err, apperrors.ErrConflict) {
		logger.Infof("user %s exists, reusing it", in.Username)
		return svc.Authenticate(ctx, in.Email, in.Password)
	}
	return u, err
}
