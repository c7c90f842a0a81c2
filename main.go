package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"projex/backend/handlers"
	"projex/backend/logging"
	"projex/backend/middleware"
	"projex/backend/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// createUserEmailIndex makes duplicate registrations fail at the store instead
// of racing through an existence check.
func createUserEmailIndex(collection *mongo.Collection) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	}
	_, err := collection.Indexes().CreateOne(context.TODO(), indexModel)
	if err != nil {
		return fmt.Errorf("failed to create unique index on user email: %v", err)
	}
	return nil
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Projex backend...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "projex"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection failed: %v", err)
	}
	defer client.Disconnect(context.TODO())

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	usersCollection := db.Collection("users")
	projectsCollection := db.Collection("projects")

	if err := createUserEmailIndex(usersCollection); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}

	storeBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ProjectsStoreCB",
		MaxRequests: 1,
		Timeout:     2 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	userService := services.NewUserService(usersCollection)
	projectService := services.NewProjectService(projectsCollection, storeBreaker)

	authHandler := handlers.NewAuthHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)

	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Projex API is running..."))
	}).Methods("GET")

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", authHandler.Register).Methods("POST")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)
	api.HandleFunc("/dashboard", authHandler.Dashboard).Methods("GET")

	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.EditProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")

	api.HandleFunc("/projects/{id}/timeline", projectHandler.AddTimelineEvent).Methods("POST")
	api.HandleFunc("/projects/{id}/timeline/{eventId}", projectHandler.EditTimelineEvent).Methods("PUT")
	api.HandleFunc("/projects/{id}/timeline/{eventId}", projectHandler.DeleteTimelineEvent).Methods("DELETE")

	api.HandleFunc("/projects/{id}/calendar", projectHandler.AddCalendarEvent).Methods("POST")
	api.HandleFunc("/projects/{id}/calendar/{eventId}", projectHandler.EditCalendarEvent).Methods("PUT")
	api.HandleFunc("/projects/{id}/calendar/{eventId}", projectHandler.DeleteCalendarEvent).Methods("DELETE")

	api.HandleFunc("/projects/{id}/departments", projectHandler.AddDepartment).Methods("POST")
	api.HandleFunc("/projects/{id}/departments/{departmentId}", projectHandler.EditDepartment).Methods("PUT")
	api.HandleFunc("/projects/{id}/departments/{departmentId}", projectHandler.DeleteDepartment).Methods("DELETE")
	api.HandleFunc("/projects/{id}/departments/{departmentId}/members", projectHandler.AddTeamMember).Methods("POST")

	api.HandleFunc("/projects/{id}/team", projectHandler.UpdateTeam).Methods("PUT")
	api.HandleFunc("/projects/{id}/team/{departmentId}/members/{memberId}", projectHandler.EditTeamMember).Methods("PUT")
	api.HandleFunc("/projects/{id}/team/{departmentId}/members/{memberId}", projectHandler.DeleteTeamMember).Methods("DELETE")

	api.HandleFunc("/projects/{id}/tasks", projectHandler.AddTask).Methods("POST")
	api.HandleFunc("/projects/{id}/tasks/{taskId}", projectHandler.EditTask).Methods("PUT")
	api.HandleFunc("/projects/{id}/tasks/{taskId}", projectHandler.DeleteTask).Methods("DELETE")

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "5000"
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", serverPort),
		Handler:      corsRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost:%s", serverPort)
	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

// enableCORS allows CORS for browser front-ends.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
