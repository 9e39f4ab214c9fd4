package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/commune-app/backend/internal/feed"
	"github.com/commune-app/backend/internal/handlers"
	"github.com/commune-app/backend/internal/middleware"
	"github.com/commune-app/backend/internal/repository"
)

type Deps struct {
	DB        *mongo.Database
	JWTSecret string
	Logger    *slog.Logger
}

// Register wires repositories, the feed core, and handlers onto the app.
func Register(app *fiber.App, deps Deps) {
	users := repository.NewUserRepository(deps.DB)
	posts := repository.NewPostRepository(deps.DB)
	conns := repository.NewConnectionRepository(deps.DB)
	tags := repository.NewTagTrendingRepository(deps.DB)

	auth := &handlers.AuthHandler{Users: users, Secret: deps.JWTSecret}
	user := &handlers.UserHandler{Users: users}
	post := &handlers.PostHandler{Posts: posts}
	like := &handlers.LikeHandler{Posts: posts}
	comment := &handlers.CommentHandler{Posts: posts}
	connection := &handlers.ConnectionHandler{Conns: conns}
	feedH := &handlers.FeedHandler{
		Ranker: feed.NewRanker(posts, deps.Logger),
		Conns:  conns,
	}
	trending := &handlers.TrendingHandler{
		Trender: feed.NewTrender(tags, deps.Logger),
	}

	app.Post("/auth/register", auth.Register)
	app.Post("/auth/login", auth.Login)

	app.Get("/users/:userId", user.Get)
	app.Get("/users/:userId/posts", post.ListByAuthor)

	app.Get("/posts/search", post.Search)
	app.Get("/posts", post.ListByTag)
	app.Get("/posts/:postId", post.Get)
	app.Get("/posts/:postId/comments", comment.List)

	app.Get("/tags/trending", trending.Get)

	requireAuth := middleware.RequireAuth()

	app.Get("/me", requireAuth, auth.Me)
	app.Patch("/me", requireAuth, auth.UpdateProfile)

	app.Get("/feed", requireAuth, feedH.Get)

	app.Post("/posts", requireAuth, post.Create)
	app.Patch("/posts/:postId", requireAuth, post.Update)
	app.Delete("/posts/:postId", requireAuth, post.Delete)

	app.Put("/posts/:postId/like", requireAuth, like.Like)
	app.Delete("/posts/:postId/like", requireAuth, like.Unlike)

	app.Post("/posts/:postId/comments", requireAuth, comment.Create)
	app.Delete("/posts/:postId/comments/:commentId", requireAuth, comment.Delete)

	app.Post("/connections", requireAuth, connection.Request)
	app.Post("/connections/:connectionId/respond", requireAuth, connection.Respond)
	app.Get("/connections", requireAuth, connection.List)
	app.Delete("/connections/:connectionId", requireAuth, connection.Remove)
}
