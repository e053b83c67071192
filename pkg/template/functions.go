package template

import (
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
)

// builtin evaluates argument-less built-in expressions.
func builtin(expr string) (any, bool) {
	switch expr {
	case "now":
		return time.Now().UTC().Format(time.RFC3339), true
	case "timestamp":
		return time.Now().Unix(), true
	case "timestamp.ms":
		return time.Now().UnixMilli(), true
	case "uuid":
		return uuid.NewString(), true
	}
	return nil, false
}

// fakers maps {{faker.kind}} names to generators.
var fakers = map[string]func() string{
	"email":      func() string { return faker.Email() },
	"name":       func() string { return faker.Name() },
	"first_name": func() string { return faker.FirstName() },
	"last_name":  func() string { return faker.LastName() },
	"username":   func() string { return faker.Username() },
	"url":        func() string { return faker.URL() },
	"uuid":       func() string { return faker.UUIDHyphenated() },
	"word":       func() string { return faker.Word() },
	"sentence":   func() string { return faker.Sentence() },
	"phone":      func() string { return faker.Phonenumber() },
}

func fakeValue(kind string) (string, bool) {
	gen, ok := fakers[kind]
	if !ok {
		return "", false
	}
	return gen(), true
}
