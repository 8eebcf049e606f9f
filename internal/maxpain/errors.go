package maxpain

import "fmt"

var (
	ErrNoOptionsData        = fmt.Errorf("no options data provided")
	ErrNoOpenInterest       = fmt.Errorf("no contracts with open interest")
	ErrNoSuitableExpiration = fmt.Errorf("no expiration with sufficient open interest")
)
