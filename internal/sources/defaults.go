package sources

// defaultEntries is the curated publisher table shipped with the service.
// Order matters for ResolveSourceName: more specific aliases first.
var defaultEntries = []Entry{
	// Financial
	{Domain: "bloomberg.com", DisplayName: "Bloomberg", Category: CategoryFinancial,
		Aliases: []string{"bloomberg"}, CanonicalURL: "https://www.bloomberg.com/markets"},
	{Domain: "wsj.com", DisplayName: "The Wall Street Journal", Category: CategoryFinancial,
		Aliases: []string{"wall street journal", "wsj"}, CanonicalURL: "https://www.wsj.com/news/markets"},
	{Domain: "ft.com", DisplayName: "Financial Times", Category: CategoryFinancial,
		Aliases: []string{"financial times"}, CanonicalURL: "https://www.ft.com/markets"},
	{Domain: "marketwatch.com", DisplayName: "MarketWatch", Category: CategoryFinancial,
		Aliases: []string{"marketwatch"}, CanonicalURL: "https://www.marketwatch.com/markets"},
	{Domain: "cnbc.com", DisplayName: "CNBC", Category: CategoryFinancial,
		Aliases: []string{"cnbc"}, CanonicalURL: "https://www.cnbc.com/world/"},

	// Government
	{Domain: "sec.gov", DisplayName: "U.S. Securities and Exchange Commission", Category: CategoryGovernment,
		Aliases: []string{"securities and exchange commission", "sec filing"}, CanonicalURL: "https://www.sec.gov/news/pressreleases"},
	{Domain: "fda.gov", DisplayName: "U.S. Food and Drug Administration", Category: CategoryGovernment,
		Aliases: []string{"food and drug administration", "fda"}, CanonicalURL: "https://www.fda.gov/news-events/fda-newsroom/press-announcements"},
	{Domain: "defense.gov", DisplayName: "U.S. Department of Defense", Category: CategoryGovernment,
		Aliases: []string{"department of defense", "defense department", "pentagon"}, CanonicalURL: "https://www.defense.gov/News/Releases/"},
	{Domain: "energy.gov", DisplayName: "U.S. Department of Energy", Category: CategoryGovernment,
		Aliases: []string{"department of energy", "energy department"}, CanonicalURL: "https://www.energy.gov/newsroom"},
	{Domain: "eia.gov", DisplayName: "U.S. Energy Information Administration", Category: CategoryGovernment,
		Aliases: []string{"energy information administration", "eia"}, CanonicalURL: "https://www.eia.gov/todayinenergy/"},
	{Domain: "state.gov", DisplayName: "U.S. Department of State", Category: CategoryGovernment,
		Aliases: []string{"state department", "department of state"}, CanonicalURL: "https://www.state.gov/press-releases/"},
	{Domain: "nato.int", DisplayName: "NATO", Category: CategoryGovernment,
		Aliases: []string{"nato"}, CanonicalURL: "https://www.nato.int/cps/en/natohq/news.htm"},
	{Domain: "clinicaltrials.gov", DisplayName: "ClinicalTrials.gov", Category: CategoryGovernment,
		Aliases: []string{"clinicaltrials.gov", "clinical trials registry"}, CanonicalURL: "https://clinicaltrials.gov/search"},

	// News
	{Domain: "reuters.com", DisplayName: "Reuters", Category: CategoryNews,
		Aliases: []string{"reuters"}, CanonicalURL: "https://www.reuters.com/world/"},
	{Domain: "apnews.com", DisplayName: "Associated Press", Category: CategoryNews,
		Aliases: []string{"associated press", "ap news"}, CanonicalURL: "https://apnews.com/world-news"},
	{Domain: "bbc.com", DisplayName: "BBC News", Category: CategoryNews,
		Aliases: []string{"bbc"}, CanonicalURL: "https://www.bbc.com/news/world"},
	{Domain: "nytimes.com", DisplayName: "The New York Times", Category: CategoryNews,
		Aliases: []string{"new york times", "nytimes"}, CanonicalURL: "https://www.nytimes.com/section/world"},

	// Research
	{Domain: "csis.org", DisplayName: "Center for Strategic and International Studies", Category: CategoryResearch,
		Aliases: []string{"center for strategic and international studies", "csis"}, CanonicalURL: "https://www.csis.org/analysis"},
	{Domain: "rand.org", DisplayName: "RAND Corporation", Category: CategoryResearch,
		Aliases: []string{"rand corporation", "rand"}, CanonicalURL: "https://www.rand.org/pubs.html"},
	{Domain: "brookings.edu", DisplayName: "Brookings Institution", Category: CategoryResearch,
		Aliases: []string{"brookings"}, CanonicalURL: "https://www.brookings.edu/research/"},
	{Domain: "iea.org", DisplayName: "International Energy Agency", Category: CategoryResearch,
		Aliases: []string{"international energy agency", "iea"}, CanonicalURL: "https://www.iea.org/news"},

	// Intelligence
	{Domain: "janes.com", DisplayName: "Janes", Category: CategoryIntelligence,
		Aliases: []string{"janes", "jane's"}, CanonicalURL: "https://www.janes.com/defence-news"},
	{Domain: "iiss.org", DisplayName: "International Institute for Strategic Studies", Category: CategoryIntelligence,
		Aliases: []string{"international institute for strategic studies", "iiss"}, CanonicalURL: "https://www.iiss.org/online-analysis/"},
	{Domain: "crisisgroup.org", DisplayName: "International Crisis Group", Category: CategoryIntelligence,
		Aliases: []string{"crisis group"}, CanonicalURL: "https://www.crisisgroup.org/latest-updates"},

	// Industry
	{Domain: "defensenews.com", DisplayName: "Defense News", Category: CategoryIndustry,
		Aliases: []string{"defense news"}, CanonicalURL: "https://www.defensenews.com/pentagon/"},
	{Domain: "breakingdefense.com", DisplayName: "Breaking Defense", Category: CategoryIndustry,
		Aliases: []string{"breaking defense"}, CanonicalURL: "https://breakingdefense.com/category/policy/"},
	{Domain: "fiercepharma.com", DisplayName: "Fierce Pharma", Category: CategoryIndustry,
		Aliases: []string{"fierce pharma", "fiercepharma"}, CanonicalURL: "https://www.fiercepharma.com/regulatory"},
	{Domain: "biopharmadive.com", DisplayName: "BioPharma Dive", Category: CategoryIndustry,
		Aliases: []string{"biopharma dive"}, CanonicalURL: "https://www.biopharmadive.com/topic/fda/"},
	{Domain: "oilprice.com", DisplayName: "OilPrice.com", Category: CategoryIndustry,
		Aliases: []string{"oilprice"}, CanonicalURL: "https://oilprice.com/Energy/"},
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := NewRegistry(defaultEntries)
	if err != nil {
		// The table above is static; a failure here is a programming error.
		panic(err)
	}
	return r
}
