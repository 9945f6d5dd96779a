package notify

// Config carries the gym details printed on messages and receipts.
type Config struct {
	GymName    string `env:"GYM_NAME" envDefault:"Club7 Gym"`
	GymAddress string `env:"GYM_ADDRESS"`
	GymPhone   string `env:"GYM_PHONE"`
	GymEmail   string `env:"GYM_EMAIL"`
}
