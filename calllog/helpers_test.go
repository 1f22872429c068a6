package calllog

import (
	"strings"
	"time"
)

type testCall struct {
	user     string
	date     string
	clock    string
	answered string
	inbound  string
	number   string
	contact  string
}

func exportTSV(calls ...testCall) string {
	var b strings.Builder
	b.WriteString(strings.Join(RequiredFields, "\t") + "\n")
	for _, c := range calls {
		user := c.user
		if user == "" {
			user = "Anna"
		}
		b.WriteString(strings.Join([]string{
			user, strings.ToLower(user) + "@example.com", "100", "PBX", "queue-1",
			c.date, c.clock, "42", c.answered, c.inbound, c.number, c.contact,
		}, "\t") + "\n")
	}
	return b.String()
}

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func projected(number string, dir Direction, ans Answer, shifted string) ProjectedRecord {
	return ProjectedRecord{UserName: "Anna", Number: number, Direction: dir, Answered: ans, Shifted: at(shifted)}
}
