package logger

import "strings"

// Level is the level at which a logger is configured. All messages sent
// to a level which is below the current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelTags are the tags each level is printed with.
var levelTags = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

var levelsByName = map[string]Level{
	"trace":    LevelTrace,
	"debug":    LevelDebug,
	"info":     LevelInfo,
	"warn":     LevelWarn,
	"error":    LevelError,
	"critical": LevelCritical,
	"off":      LevelOff,
}

// LevelFromString parses a level name or tag, case insensitively. It
// returns LevelInfo and false for anything else.
func LevelFromString(s string) (Level, bool) {
	name := strings.ToLower(s)
	if level, ok := levelsByName[name]; ok {
		return level, true
	}
	for level, tag := range levelTags {
		if strings.ToLower(tag) == name {
			return Level(level), true
		}
	}
	return LevelInfo, false
}

// String returns the tag of the level, or "OFF" for levels that produce no
// output.
func (l Level) String() string {
	if l >= LevelOff {
		return "OFF"
	}
	return levelTags[l]
}
