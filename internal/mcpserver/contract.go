package mcpserver

// RecordingRules describes how timelog turns sessions into counts and how
// the calendar views bucket them. LLM clients read it before recording time.
const RecordingRules = `# timelog recording rules

## Records

- A record has a title (1-200 characters), an optional description and a
  count of recorded minutes.
- A new record is "not yet timed": count 0 and no last duration.

## Durations

- Durations are given in seconds, or as "HH:MM:SS" (also "MM:SS" or "SS") via the ` + "`" + `hms` + "`" + ` argument.
- A session shorter than one second is recorded as one second.
- The record's count becomes the session length in minutes, rounded up:
  61 seconds records 2 minutes.
- Each recorded session moves the record's timestamp to now. The timestamp
  decides which day, week and month the record counts towards.
- ` + "`" + `source` + "`" + ` is one of ` + "`" + `manual` + "`" + ` (default), ` + "`" + `timer` + "`" + ` or ` + "`" + `interrupted` + "`" + `.

## Increment

- ` + "`" + `increment_record` + "`" + ` adds one minute and moves the timestamp to now.

## Statistics

- Weeks start on the configured week start day (Monday unless configured).
- Heatmap cells are tiered by count: 0 -> 0, 1-3 -> 1, 4-6 -> 2, 7+ -> 3.
- Days after today are marked future and always count 0.
`
