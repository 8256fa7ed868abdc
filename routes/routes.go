package routes

import (
	"tourtab/auth"
	"tourtab/middleware"
	"tourtab/ratelim"
	"tourtab/reports"
	"tourtab/tours"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rl *ratelim.RateLimiter) {
	router.POST("/user/signup", rl.Limit(h.Signup))
	router.POST("/user/signin", rl.Limit(h.Signin))
	router.POST("/user/logout", middleware.Authenticate(h.Logout))
	router.POST("/user/forgot-password", rl.Limit(h.ForgotPassword))
	router.POST("/user/reset-password", rl.Limit(h.ResetPassword))
}

func AddTourRoutes(router *httprouter.Router, h *tours.Handler) {
	router.POST("/user/tours", middleware.Authenticate(h.CreateTour))
	router.GET("/user/tours", middleware.Authenticate(h.GetTours))
	router.GET("/user/tours/active", middleware.Authenticate(h.GetActiveTour))
	// "all/:tourId" instead of ":tourId" so the static "active" route above
	// can coexist in the same GET tree.
	router.GET("/user/tours/all/:tourId", middleware.Authenticate(h.GetTour))
	router.PATCH("/user/tours/:tourId/activate", middleware.Authenticate(h.ActivateTour))
	router.DELETE("/user/tours/:tourId", middleware.Authenticate(h.DeleteTour))

	router.POST("/user/expenses", middleware.Authenticate(h.AddExpense))
	router.DELETE("/user/expenses/:expenseId", middleware.Authenticate(h.DeleteExpense))

	router.GET("/user/dashboard", middleware.Authenticate(h.Dashboard))
}

func AddReportRoutes(router *httprouter.Router, h *reports.Handler) {
	router.GET("/user/dashboard/report", middleware.Authenticate(h.TourReport))
}
