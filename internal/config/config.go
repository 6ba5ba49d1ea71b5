package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/path/to/socket)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	JWTSecret string `env:"JWT_SECRET,required"`

	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID,required"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET,required"`
	// Sandbox keys only: enables the gateway's test-mode amount ceiling.
	RazorpayTestMode bool `env:"RAZORPAY_TEST_MODE" envDefault:"false"`

	// Optional GCS bucket for archived payment receipts. Empty means
	// invoice URLs point at the gateway dashboard instead.
	ReceiptBucket string `env:"RECEIPT_BUCKET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
