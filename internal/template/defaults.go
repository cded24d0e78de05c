package template

// DefaultCatalog returns the built-in template set. The hosted CMS can
// replace it with a JSON catalog at runtime; these cover every output
// type so the pipeline works out of the box.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultTemplates())
	if err != nil {
		// The built-in set is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return c
}

func defaultTemplates() []Template {
	return []Template{
		{
			ID:          "sales-copy",
			Title:       "Sales Copy Writer",
			Description: "Persuasive product copy for ads, landing pages and email.",
			Category:    "Marketing",
			OutputType:  OutputText,
			SystemPrompt: "You are a senior direct-response copywriter. Write persuasive, " +
				"honest sales copy for the product described by the user. Use short " +
				"paragraphs, strong hooks and a clear call to action. Answer only with " +
				"the final copy, no introductions.",
			Steps: []Step{
				{
					ID:          "product",
					Kind:        KindTextarea,
					Question:    "What are you selling?",
					Subtext:     "Describe the product or offer in your own words.",
					Placeholder: "E.g. an online course about home workouts...",
					Required:    true,
				},
				{
					ID:       "audience",
					Kind:     KindText,
					Question: "Who is your ideal customer?",
					Required: true,
				},
				{
					ID:       "tone",
					Kind:     KindSelect,
					Question: "Which tone fits your brand?",
					Options: []Option{
						{Label: "Professional", Value: "professional"},
						{Label: "Friendly", Value: "friendly"},
						{Label: "Bold and urgent", Value: "bold"},
					},
					Required: true,
				},
			},
		},
		{
			ID:          "social-visual",
			Title:       "Social Media Visual",
			Description: "A striking square image for your next post.",
			Category:    "Creative",
			OutputType:  OutputImage,
			SystemPrompt: "Professional product photography style, vivid colors, " +
				"clean composition, social-media ready.",
			Steps: []Step{
				{
					ID:          "subject",
					Kind:        KindTextarea,
					Question:    "What should the image show?",
					Placeholder: "E.g. a cup of specialty coffee on a marble table...",
					Required:    true,
				},
				{
					ID:       "style",
					Kind:     KindMultiSelect,
					Question: "Pick the visual styles you like",
					Options: []Option{
						{Label: "Minimalist", Value: "minimalist"},
						{Label: "Vibrant", Value: "vibrant"},
						{Label: "Vintage", Value: "vintage"},
						{Label: "Futuristic", Value: "futuristic"},
					},
					Required: true,
				},
			},
		},
		{
			ID:          "personal-site",
			Title:       "Personal Page Builder",
			Description: "A single-file personal page with your photo and links.",
			Category:    "Business",
			OutputType:  OutputSite,
			SystemPrompt: "You are an elite web designer. Build a complete, modern, " +
				"single-file personal page for the person described by the user.",
			Steps: []Step{
				{
					ID:       "full_name",
					Kind:     KindText,
					Question: "What is your full name?",
					Required: true,
				},
				{
					ID:          "headline",
					Kind:        KindText,
					Question:    "What is your professional headline?",
					Placeholder: "E.g. Product designer & illustrator",
					Required:    true,
				},
				{
					ID:       "bio",
					Kind:     KindTextarea,
					Question: "Tell visitors about yourself",
					Required: false,
				},
				{
					ID:       "user_photo",
					Kind:     KindImage,
					Question: "Upload a profile photo",
					Subtext:  "JPG or PNG, up to 4MB.",
					Required: false,
				},
			},
		},
		{
			ID:          "launch-agent-360",
			Title:       "360 Launch Agent",
			Description: "Email sequence, social posts, video script and sales page from a single idea.",
			Category:    "Marketing",
			OutputType:  OutputText,
			MinPlan:     "master",
			SystemPrompt: "You are a world-class chief marketing strategist. Create a " +
				"complete, cohesive and ethical launch campaign. Produce four detailed " +
				"sections separated by \"## \": an AIDA email sequence, an Instagram " +
				"strategy with hashtags, a short-video script with a 0-3s hook, and a " +
				"sales-page copy structure (headline, subheadline, benefit bullets, " +
				"objection handling, offer). Never promise unrealistic results.",
			Steps: []Step{
				{
					ID:          "product_concept",
					Kind:        KindTextarea,
					Question:    "What are you launching today?",
					Subtext:     "Describe your product or offer. The agent does the rest.",
					Placeholder: "E.g. an ebook about intermittent fasting for $9.90...",
					Required:    true,
				},
				{
					ID:       "target_pain",
					Kind:     KindText,
					Question: "What is your customer's biggest pain?",
					Required: true,
				},
				{
					ID:       "transformation",
					Kind:     KindTextarea,
					Question: "What transformation do you promise?",
					Subtext:  "Where will the customer be after using your product?",
					Required: true,
				},
				{
					ID:       "proof_shots",
					Kind:     KindMultiImage,
					Question: "Add up to 3 proof screenshots (optional)",
					MaxFiles: 3,
					Required: false,
				},
			},
		},
	}
}
