package intent

import "fmt"

// InjectTokens renders the context fragment handed to reply composition:
//
//	[[subject id=01J0... name="Anna"]]
//
// The name is Go-quoted so it may contain any text.
func InjectTokens(subjectID, name string) string {
	return fmt.Sprintf("[[subject id=%s name=%q]]", subjectID, name)
}
