package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/musiklag/songquiz/internal/quiz"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Songquiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the anonymous song submission quiz.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/auth/register")
	postRegister.SetSummary("Register")
	postRegister.SetDescription("Creates an account and sets the session cookie.")
	postRegister.AddReqStructure(RegisterRequest{})
	postRegister.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRegister)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Authenticate with email and password. Sets the session cookie.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	postLogout.SetSummary("Log out")
	postLogout.SetDescription("Clears the session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/auth/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/auth/me")
	getMe.SetSummary("Current user")
	getMe.SetDescription("Returns the authenticated user. Requires session cookie.")
	getMe.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/quizzes
	listQuizzes, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes")
	listQuizzes.SetSummary("List quizzes")
	listQuizzes.SetDescription("Returns all quizzes with counts and whether the viewer has joined.")
	listQuizzes.AddRespStructure([]QuizSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listQuizzes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listQuizzes)

	// POST /api/quizzes
	createQuiz, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes")
	createQuiz.SetSummary("Create quiz")
	createQuiz.SetDescription("Creates a quiz in the open phase. The creator joins automatically.")
	createQuiz.AddReqStructure(CreateQuizRequest{})
	createQuiz.AddRespStructure(QuizDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createQuiz)

	// GET /api/quizzes/{quizID}
	getQuiz, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes/{quizID}")
	getQuiz.SetSummary("Get quiz")
	getQuiz.SetDescription("Returns one quiz with participants, admins, and the viewer's own submissions.")
	getQuiz.AddRespStructure(QuizDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getQuiz)

	// POST /api/quizzes/{quizID}/join
	joinQuiz, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes/{quizID}/join")
	joinQuiz.SetSummary("Join quiz")
	joinQuiz.SetDescription("Joins the quiz as a participant. Only possible while the quiz is open; joining twice is a no-op.")
	joinQuiz.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	joinQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	joinQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(joinQuiz)

	// PUT /api/quizzes/{quizID}/status
	setStatus, _ := r.NewOperationContext(http.MethodPut, "/api/quizzes/{quizID}/status")
	setStatus.SetSummary("Advance quiz status")
	setStatus.SetDescription("Moves the quiz to the next lifecycle phase (open → closed → guessing → completed). Creator or quiz admins only; the target must be the immediate successor of the current phase.")
	setStatus.AddReqStructure(StatusRequest{})
	setStatus.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	setStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	setStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(setStatus)

	// GET /api/quizzes/{quizID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes/{quizID}/events")
	getEvents.SetSummary("Quiz event stream")
	getEvents.SetDescription("Server-Sent Events stream of lobby updates (participants joining, status changes). Participants only.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/quizzes/{quizID}/submissions
	listSubs, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes/{quizID}/submissions")
	listSubs.SetSummary("List submissions")
	listSubs.SetDescription("Returns the quiz's submitted songs without submitter identities. Participants only.")
	listSubs.AddRespStructure([]SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listSubs.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(listSubs)

	// POST /api/quizzes/{quizID}/submissions
	postSub, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes/{quizID}/submissions")
	postSub.SetSummary("Submit a song")
	postSub.SetDescription("Submits a song while the quiz is open. Participants only; multiple submissions are allowed.")
	postSub.AddReqStructure(SubmitRequest{})
	postSub.AddRespStructure(SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSub.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSub.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postSub)

	// POST /api/quizzes/{quizID}/guesses
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes/{quizID}/guesses")
	postGuess.SetSummary("Record a guess")
	postGuess.SetDescription("Records who the caller thinks submitted a song. Guessing phase only; guessing on your own submission is rejected. Correctness is not revealed in the response.")
	postGuess.AddReqStructure(GuessRequest{})
	postGuess.AddRespStructure(GuessResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postGuess)

	// GET /api/quizzes/{quizID}/admins
	listAdmins, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes/{quizID}/admins")
	listAdmins.SetSummary("List quiz admins")
	listAdmins.SetDescription("Returns the quiz's admins. Creator or admins only.")
	listAdmins.AddRespStructure([]UserInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	listAdmins.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(listAdmins)

	// POST /api/quizzes/{quizID}/admins
	addAdmin, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes/{quizID}/admins")
	addAdmin.SetSummary("Add quiz admin")
	addAdmin.SetDescription("Grants another user transition rights on this quiz, by email. Creator or admins only.")
	addAdmin.AddReqStructure(AddAdminRequest{})
	addAdmin.AddRespStructure([]UserInfo{}, openapi.WithHTTPStatus(http.StatusCreated))
	addAdmin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	addAdmin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(addAdmin)

	// GET /api/quizzes/{quizID}/leaderboard
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes/{quizID}/leaderboard")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Accuracy ranking of everyone who has guessed. Available from the guessing phase onward.")
	getLeaderboard.AddRespStructure([]quiz.LeaderboardEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getLeaderboard)

	// GET /api/quizzes/{quizID}/results
	getResults, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes/{quizID}/results")
	getResults.SetSummary("Quiz results")
	getResults.SetDescription("Songs with submitters unmasked plus the final leaderboard. Participants only, completed quizzes only.")
	getResults.AddRespStructure(ResultsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getResults.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getResults)

	// GET /api/quizzes/{quizID}/presentation
	getPresentation, _ := r.NewOperationContext(http.MethodGet, "/api/quizzes/{quizID}/presentation")
	getPresentation.SetSummary("Presentation data")
	getPresentation.SetDescription("Per-song guess distribution and leaderboard for the host-run reveal screen. Creator or admins only.")
	getPresentation.AddRespStructure(PresentationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPresentation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	getPresentation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getPresentation)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
