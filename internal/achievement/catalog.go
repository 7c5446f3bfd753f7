package achievement

import (
	"fmt"
	"sort"
	"sync"
)

// CatalogVersion changes whenever an id, threshold or reward changes.
const CatalogVersion = "2025.2"

var (
	animals5a = []string{"cat", "dog", "rabbit", "fox", "penguin"}
	animals5b = []string{"bear", "lion", "tiger", "wolf", "owl"}
	animals5c = []string{"panda", "koala", "elephant", "giraffe", "deer"}
	animals15 = []string{
		"cat", "dog", "rabbit", "fox", "penguin", "bear", "owl", "lion",
		"tiger", "wolf", "panda", "koala", "elephant", "giraffe", "deer",
	}
	critters10 = []string{"Cat", "Dog", "Rabbit", "Fox", "Penguin", "Bear", "Owl", "Lion", "Tiger", "Wolf"}
	seasons    = []string{"Spring", "Summer", "Autumn", "Winter"}
)

// series describes one generated family of achievements. Entry i (zero based)
// gets the id prefix_<i+first>, where first defaults to 1.
type series struct {
	prefix    string
	first     int
	count     int
	category  Category
	condition ConditionType
	timeframe Timeframe
	value     func(i int) int
	reward    func(i int) int64
	tier      func(i int) Tier
	animal    func(i int) string
	title     func(i int) string
	describe  func(i int) string
}

var catalogSeries = []series{
	{
		prefix: "task_novice", count: 50, category: CategoryTasks, condition: ConditionTasksCompleted,
		value: linear(5, 5), reward: reward(100, 10), tier: fixed(TierBronze), animal: pick(animals5a),
		title:    ranked("Task", "Apprentice", "Novice", "Beginner", "Starter", "Rookie"),
		describe: func(i int) string { return fmt.Sprintf("Complete %d tasks", (i+1)*5) },
	},
	{
		prefix: "task_expert", count: 30, category: CategoryTasks, condition: ConditionTasksCompleted,
		value: linear(300, 50), reward: reward(500, 25), tier: fixed(TierSilver), animal: pick(animals5b),
		title:    ranked("Task", "Expert", "Master", "Champion", "Legend", "Grandmaster"),
		describe: func(i int) string { return fmt.Sprintf("Complete %d tasks", (i+1)*50+250) },
	},
	{
		prefix: "task_legendary", count: 20, category: CategoryTasks, condition: ConditionTasksCompleted,
		value: linear(1600, 100), reward: reward(1000, 50), tier: fixed(TierGold), animal: pick(animals5c),
		title:    ranked("Task", "Legendary", "Mythical", "Divine", "Cosmic", "Eternal"),
		describe: func(i int) string { return fmt.Sprintf("Complete %d tasks", (i+1)*100+1500) },
	},
	{
		prefix: "focus_beginner", count: 50, category: CategoryFocus, condition: ConditionFocusSessions,
		value: linear(2, 2), reward: reward(150, 15), tier: fixed(TierBronze),
		animal:   pick([]string{"cat", "rabbit", "fox", "penguin", "dog"}),
		title:    ranked("Focus", "Starter", "Beginner", "Learner", "Student", "Trainee"),
		describe: func(i int) string { return fmt.Sprintf("Complete %d focus sessions", (i+1)*2) },
	},
	{
		prefix: "focus_advanced", count: 50, category: CategoryFocus, condition: ConditionFocusSessions,
		value: linear(110, 10), reward: reward(300, 20), tier: fixed(TierSilver),
		animal:   pick([]string{"bear", "owl", "lion", "tiger", "wolf"}),
		title:    ranked("Focus", "Advanced", "Expert", "Master", "Guru", "Sage"),
		describe: func(i int) string { return fmt.Sprintf("Complete %d focus sessions", (i+1)*10+100) },
	},
	{
		prefix: "focus_master", count: 50, category: CategoryFocus, condition: ConditionFocusSessions,
		value: linear(625, 25), reward: reward(750, 30), tier: fixed(TierGold),
		animal:   pick([]string{"panda", "elephant", "giraffe", "koala", "deer"}),
		title:    ranked("Focus", "Grandmaster", "Legend", "Titan", "God", "Supreme"),
		describe: func(i int) string { return fmt.Sprintf("Complete %d focus sessions", (i+1)*25+600) },
	},
	{
		prefix: "task_streak", count: 50, category: CategoryStreak, condition: ConditionTaskStreak,
		timeframe: TimeframeConsecutive, value: linear(2, 1), reward: reward(200, 25), tier: fixed(TierBronze),
		animal:   pick(animals5a),
		title:    paired([]string{"Consistent", "Reliable", "Steady", "Persistent", "Dedicated"}, []string{"Cat", "Dog", "Rabbit", "Fox", "Penguin"}, 5),
		describe: func(i int) string { return fmt.Sprintf("Complete tasks for %d consecutive days", i+2) },
	},
	{
		prefix: "focus_streak", count: 30, category: CategoryStreak, condition: ConditionFocusSessions,
		timeframe: TimeframeConsecutive, value: linear(3, 1), reward: reward(400, 35), tier: fixed(TierSilver),
		animal:   pick([]string{"bear", "owl", "lion", "tiger", "wolf"}),
		title:    paired([]string{"Focused", "Concentrated", "Mindful", "Zen", "Meditative"}, []string{"Bear", "Owl", "Lion", "Tiger", "Wolf"}, 5),
		describe: func(i int) string { return fmt.Sprintf("Complete focus sessions for %d consecutive days", i+3) },
	},
	{
		prefix: "mood_streak", count: 40, category: CategoryMood, condition: ConditionMoodStreak,
		timeframe: TimeframeConsecutive, value: linear(3, 1), reward: reward(150, 20), tier: fixed(TierBronze),
		animal:   pick(animals5c),
		title:    paired([]string{"Happy", "Joyful", "Cheerful", "Positive", "Radiant"}, []string{"Panda", "Koala", "Elephant", "Giraffe", "Deer"}, 5),
		describe: func(i int) string { return fmt.Sprintf("Track mood for %d consecutive days", i+3) },
	},
	{
		// Level 1 is where every ledger starts, so the series opens at level 2
		// and level_N is awarded on reaching level N.
		prefix: "level", first: 2, count: 100, category: CategoryLevel, condition: ConditionLevelReached,
		value: linear(2, 1), reward: reward(100, 100), tier: bands(20, 50, 80, 95),
		animal: pick(animals15),
		title: func(i int) string {
			ranks := []string{"Warrior", "Knight", "Champion", "Hero", "Legend", "Master", "Sage", "Guardian", "Titan", "God"}
			return fmt.Sprintf("Level %d %s", i+2, ranks[i%len(ranks)])
		},
		describe: func(i int) string { return fmt.Sprintf("Reach level %d", i+2) },
	},
	{
		prefix: "xp", count: 100, category: CategoryLevel, condition: ConditionXPEarned,
		value: linear(1000, 1000), reward: reward(500, 25), tier: bands(25, 50, 75, 90),
		animal:   pick(animals15),
		title:    paired([]string{"Collector", "Gatherer", "Accumulator", "Hoarder", "Magnate"}, critters10, 10),
		describe: func(i int) string { return fmt.Sprintf("Earn %d total XP", (i+1)*1000) },
	},
	{
		prefix: "daily", count: 30, category: CategoryTime, condition: ConditionLoginStreak,
		timeframe: TimeframeConsecutive, value: linear(1, 1), reward: reward(100, 15), tier: fixed(TierBronze),
		animal:   pick(animals5a),
		title:    ranked("Daily", "Visitor", "Regular", "Devotee", "Fanatic", "Addict"),
		describe: func(i int) string { return fmt.Sprintf("Log in for %d consecutive days", i+1) },
	},
	{
		prefix: "weekly", count: 20, category: CategoryTime, condition: ConditionTaskStreak,
		timeframe: TimeframeConsecutive, value: linear(7, 7), reward: reward(500, 50), tier: fixed(TierSilver),
		animal:   pick([]string{"bear", "owl", "lion", "tiger", "wolf"}),
		title:    ranked("Weekly", "Champion", "Master", "Legend", "Titan", "God"),
		describe: func(i int) string { return fmt.Sprintf("Complete tasks every day for %d consecutive weeks", i+1) },
	},
	{
		prefix: "monthly", count: 12, category: CategoryTime, condition: ConditionTaskStreak,
		timeframe: TimeframeConsecutive, value: linear(30, 30), reward: reward(1000, 100), tier: fixed(TierGold),
		animal: pick([]string{"panda", "koala", "elephant", "giraffe"}),
		title: func(i int) string {
			words := []string{"Achiever", "Conqueror", "Dominator", "Emperor"}
			return fmt.Sprintf("Monthly %s %d", words[i%4], i/4+1)
		},
		describe: func(i int) string { return fmt.Sprintf("Complete tasks every day for %d consecutive months", i+1) },
	},
	{
		prefix: "special_combo", count: 50, category: CategorySpecial, condition: ConditionSpecial,
		value: linear(2, 1), reward: reward(750, 40), tier: fixed(TierPlatinum), animal: pick(animals15),
		title:    paired([]string{"Combo", "Multi", "Super", "Ultra", "Mega"}, critters10, 10),
		describe: func(i int) string { return fmt.Sprintf("Complete %d different types of activities in one day", i+2) },
	},
	{
		prefix: "perfect_week", count: 25, category: CategorySpecial, condition: ConditionTaskStreak,
		timeframe: TimeframeConsecutive, value: linear(7, 7), reward: reward(1500, 75), tier: fixed(TierDiamond),
		animal:   pick(animals5c),
		title:    ranked("Perfect", "Week", "Fortnight", "Month", "Season", "Year"),
		describe: func(i int) string { return fmt.Sprintf("Complete all daily goals for %d consecutive days", (i+1)*7) },
	},
	{
		prefix: "speed_demon", count: 25, category: CategorySpecial, condition: ConditionTasksCompleted,
		timeframe: TimeframeDaily, value: linear(5, 5), reward: reward(2000, 100), tier: fixed(TierLegendary),
		animal:   pick(animals5a),
		title:    ranked("Speed", "Demon", "Racer", "Lightning", "Flash", "Sonic"),
		describe: func(i int) string { return fmt.Sprintf("Complete %d tasks in one day", (i+1)*5) },
	},
	{
		prefix: "seasonal", count: 12, category: CategorySpecial, condition: ConditionSpecial,
		value: func(int) int { return 100 }, reward: func(int) int64 { return 1000 }, tier: fixed(TierGold),
		animal: pick([]string{"rabbit", "lion", "fox", "bear"}),
		title: func(i int) string {
			words := []string{"Blossom", "Sunshine", "Harvest", "Frost"}
			return fmt.Sprintf("%s %s %d", seasons[i%4], words[i%4], i/4+1)
		},
		describe: func(i int) string {
			return fmt.Sprintf("Log 100 activities during %s in %d different years", seasons[i%4], i/4+1)
		},
	},
}

var singles = []Definition{
	{
		ID: "night_owl", Title: "Night Owl Scholar", Description: "Complete 50 focus sessions after 10 PM",
		Category: CategorySpecial, Tier: TierSilver, Animal: "owl",
		Condition: Condition{Type: ConditionSpecial, Value: 50}, XPReward: 800,
	},
	{
		ID: "early_bird", Title: "Early Bird Champion", Description: "Complete 50 tasks before 8 AM",
		Category: CategorySpecial, Tier: TierSilver, Animal: "cat",
		Condition: Condition{Type: ConditionSpecial, Value: 50}, XPReward: 800,
	},
	{
		ID: "weekend_warrior", Title: "Weekend Warrior", Description: "Complete tasks on 20 consecutive weekends",
		Category: CategorySpecial, Tier: TierGold, Animal: "lion",
		Condition: Condition{Type: ConditionSpecial, Value: 20}, XPReward: 1200,
	},
}

func linear(first, step int) func(int) int {
	return func(i int) int { return first + i*step }
}

func reward(base, step int64) func(int) int64 {
	return func(i int) int64 { return base + int64(i)*step }
}

func fixed(t Tier) func(int) Tier {
	return func(int) Tier { return t }
}

// bands maps the entry index onto bronze..platinum by upper bounds, with
// everything past the last bound legendary.
func bands(bronze, silver, gold, platinum int) func(int) Tier {
	return func(i int) Tier {
		switch {
		case i < bronze:
			return TierBronze
		case i < silver:
			return TierSilver
		case i < gold:
			return TierGold
		case i < platinum:
			return TierPlatinum
		}
		return TierLegendary
	}
}

func pick(names []string) func(int) string {
	return func(i int) string { return names[i%len(names)] }
}

func ranked(prefix string, words ...string) func(int) string {
	return func(i int) string {
		return fmt.Sprintf("%s %s %d", prefix, words[i%len(words)], i/len(words)+1)
	}
}

func paired(adjectives, nouns []string, per int) func(int) string {
	return func(i int) string {
		return fmt.Sprintf("%s %s %d", adjectives[i%len(adjectives)], nouns[i%len(nouns)], i/per+1)
	}
}

func (s series) expand() []Definition {
	first := s.first
	if first == 0 {
		first = 1
	}
	defs := make([]Definition, 0, s.count)
	for i := 0; i < s.count; i++ {
		defs = append(defs, Definition{
			ID:          fmt.Sprintf("%s_%d", s.prefix, i+first),
			Title:       s.title(i),
			Description: s.describe(i),
			Category:    s.category,
			Tier:        s.tier(i),
			Animal:      s.animal(i),
			Condition: Condition{
				Type:      s.condition,
				Value:     s.value(i),
				Timeframe: s.timeframe,
			},
			XPReward: s.reward(i),
		})
	}
	return defs
}

// Catalog is the read-only achievement table.
type Catalog struct {
	Version string
	defs    []Definition
	byID    map[string]int
}

// NewCatalog validates defs and indexes them. It is also how tests build
// small catalogs.
func NewCatalog(version string, defs []Definition) (*Catalog, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}
	c := &Catalog{
		Version: version,
		defs:    append([]Definition(nil), defs...),
		byID:    make(map[string]int, len(defs)),
	}
	for i, d := range c.defs {
		c.byID[d.ID] = i
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default expands the built-in series once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		var defs []Definition
		for _, s := range catalogSeries {
			defs = append(defs, s.expand()...)
		}
		defs = append(defs, singles...)
		defaultCatalog, defaultErr = NewCatalog(CatalogVersion, defs)
	})
	return defaultCatalog, defaultErr
}

func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("achievement catalog: %v", err))
	}
	return c
}

func (c *Catalog) Len() int { return len(c.defs) }

// All returns a copy; the catalog itself never changes.
func (c *Catalog) All() []Definition {
	return append([]Definition(nil), c.defs...)
}

func (c *Catalog) Get(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

func (c *Catalog) ByCategory(cat Category) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// Counts tallies entries per category, for startup logs and the CLI.
func (c *Catalog) Counts() map[Category]int {
	out := make(map[Category]int)
	for _, d := range c.defs {
		out[d.Category]++
	}
	return out
}

func (c *Catalog) Categories() []Category {
	counts := c.Counts()
	out := make([]Category, 0, len(counts))
	for cat := range counts {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
