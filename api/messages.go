package api

// Response messages returned in the "message" field.
const (
	HomeRoute     = "Welcome to the Suisse Offerten API"
	RouteNotFound = "Route not found"
	ServerError   = "Something went wrong, please try again later"
	CorsError     = "Not allowed by CORS"
	Unauthorized  = "Unauthorized"
	TooManyTries  = "Too many requests, please try again later"

	InvalidRequest        = "Invalid request"
	DataNotFound          = "Data not found"
	EmailAlreadyExists    = "Email already exists"
	UsernameAlreadyExists = "Username already exists"
	AlreadyVerified       = "Account is already verified"
	EnterWrongCode        = "You entered a wrong code"
	VerifyYourAccount     = "Please verify your account"
	IncorrectPassword     = "Incorrect password"
	OTPNotMatch           = "OTP does not match"
	TokenExpired          = "OTP has expired"
	InvalidPlan           = "Invalid membership plan"

	RegistrationVerifyOTP = "Registration successful, please verify your email with the code we sent"
	VerificationSuccess   = "Verification successful, you can now log in"
	LoginSuccessful       = "Login successful"
	OTPSendSuccess        = "OTP sent to your email"
	OTPMatchSuccess       = "OTP matched"
	PasswordChangeSuccess = "Password changed successfully"
	LinkSendSuccess       = "Change password link sent to your email"
	UpdateSuccess         = "Updated successfully"
	DeleteSuccess         = "Deleted successfully"
	AccountCreateSuccess  = "Account created successfully"
	JobCreateSuccess      = "Job created successfully"
	QuerySuccessful       = "Query successful"
)
