package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// seedCompanies 演示用公司与所在地
var seedCompanies = [][2]string{
	{"Google", "Mountain View, CA"},
	{"Meta", "Menlo Park, CA"},
	{"Amazon", "Seattle, WA"},
	{"Microsoft", "Redmond, WA"},
	{"Apple", "Cupertino, CA"},
	{"Netflix", "Los Gatos, CA"},
	{"Stripe", "San Francisco, CA"},
	{"Airbnb", "San Francisco, CA"},
	{"Uber", "San Francisco, CA"},
	{"Lyft", "San Francisco, CA"},
	{"Spotify", "New York, NY"},
	{"Twitter/X", "San Francisco, CA"},
	{"LinkedIn", "Sunnyvale, CA"},
	{"Salesforce", "San Francisco, CA"},
	{"Adobe", "San Jose, CA"},
	{"Nvidia", "Santa Clara, CA"},
	{"Intel", "Santa Clara, CA"},
	{"Qualcomm", "San Diego, CA"},
	{"Databricks", "San Francisco, CA"},
	{"Snowflake", "Bozeman, MT"},
	{"Palantir", "Denver, CO"},
	{"Coinbase", "Remote"},
	{"Robinhood", "Menlo Park, CA"},
	{"Square/Block", "San Francisco, CA"},
	{"Shopify", "Remote"},
	{"Notion", "San Francisco, CA"},
	{"Figma", "San Francisco, CA"},
	{"Vercel", "Remote"},
	{"Supabase", "Remote"},
	{"OpenAI", "San Francisco, CA"},
}

type roleTemplate struct {
	titles          []string
	experienceLevel string
	jobType         string
	salaryRange     string
	requirements    []string
	skillPools      []string
}

var roleTemplates = map[string]roleTemplate{
	"swe_intern": {
		titles:          []string{"Software Engineering Intern", "SWE Intern - Summer 2026", "Software Developer Intern"},
		experienceLevel: "internship",
		jobType:         "internship",
		salaryRange:     "$40-60/hour",
		requirements: []string{
			"Currently pursuing a BS/MS in Computer Science or related field",
			"Strong understanding of data structures and algorithms",
			"Experience with at least one programming language",
			"Expected graduation date between Dec 2026 and Jun 2028",
		},
		skillPools: []string{"languages", "backend"},
	},
	"fullstack": {
		titles:          []string{"Full Stack Engineer", "Full Stack Developer", "Software Engineer, Full Stack"},
		experienceLevel: "entry",
		jobType:         "full_time",
		salaryRange:     "$110,000 - $150,000",
		requirements: []string{
			"BS in Computer Science or equivalent practical experience",
			"Experience building web applications end to end",
			"Familiarity with modern frontend frameworks",
			"Understanding of RESTful API design",
		},
		skillPools: []string{"languages", "frontend", "backend"},
	},
	"ml_engineer": {
		titles:          []string{"Machine Learning Engineer", "ML Engineer, New Grad", "AI/ML Software Engineer"},
		experienceLevel: "entry",
		jobType:         "full_time",
		salaryRange:     "$130,000 - $180,000",
		requirements: []string{
			"MS/PhD in Computer Science, Machine Learning, or related field preferred",
			"Experience with deep learning frameworks",
			"Strong Python programming skills",
			"Understanding of ML fundamentals and model evaluation",
		},
		skillPools: []string{"ml", "data", "languages"},
	},
	"frontend": {
		titles:          []string{"Frontend Engineer", "UI Engineer", "Software Engineer, Frontend"},
		experienceLevel: "entry",
		jobType:         "full_time",
		salaryRange:     "$105,000 - $140,000",
		requirements: []string{
			"Experience with React or similar frameworks",
			"Strong CSS and responsive design skills",
			"Understanding of web performance optimization",
			"Eye for design and user experience",
		},
		skillPools: []string{"frontend", "languages"},
	},
	"backend": {
		titles:          []string{"Backend Engineer", "Software Engineer, Backend", "Backend Developer"},
		experienceLevel: "entry",
		jobType:         "full_time",
		salaryRange:     "$115,000 - $155,000",
		requirements: []string{
			"Experience designing and building APIs",
			"Familiarity with relational and NoSQL databases",
			"Understanding of distributed systems concepts",
			"Experience with cloud platforms",
		},
		skillPools: []string{"backend", "cloud", "languages"},
	},
	"new_grad": {
		titles:          []string{"Software Engineer, New Grad", "Software Engineer I", "Associate Software Engineer"},
		experienceLevel: "entry",
		jobType:         "full_time",
		salaryRange:     "$100,000 - $145,000",
		requirements: []string{
			"BS/MS in Computer Science completed within the last 12 months",
			"Strong CS fundamentals",
			"Internship or project experience preferred",
			"Willingness to learn and grow",
		},
		skillPools: []string{"languages", "backend", "cloud"},
	},
}

var skillPools = map[string][]string{
	"languages": {"Python", "Java", "Go", "C++", "JavaScript", "TypeScript", "Rust"},
	"frontend":  {"React", "Vue.js", "Next.js", "CSS", "HTML", "Tailwind", "Redux"},
	"backend":   {"Node.js", "PostgreSQL", "Redis", "REST APIs", "GraphQL", "Microservices", "Docker"},
	"ml":        {"PyTorch", "TensorFlow", "scikit-learn", "Transformers", "LLMs", "Computer Vision", "NLP"},
	"data":      {"SQL", "Spark", "Airflow", "Pandas", "Data Pipelines", "Kafka", "Snowflake"},
	"cloud":     {"AWS", "GCP", "Azure", "Kubernetes", "Terraform", "CI/CD", "Linux"},
}

var seedBenefits = []string{
	"Health, dental, and vision insurance",
	"401(k) matching",
	"Unlimited PTO",
	"Free lunch and snacks",
	"Annual learning stipend",
	"Home office setup budget",
	"Gym membership reimbursement",
	"Mental health support",
	"Commuter benefits",
	"Stock options / RSUs",
}

var responsibilityTemplates = map[string][]string{
	"swe_intern": {
		"Work alongside senior engineers on production systems",
		"Complete a summer-long project with real user impact",
		"Participate in code reviews and design discussions",
		"Present your work at the end-of-internship showcase",
	},
	"fullstack": {
		"Build and ship features across the entire stack",
		"Collaborate with designers and product managers",
		"Write clean, tested, maintainable code",
		"Participate in on-call rotation for your team's services",
	},
	"ml_engineer": {
		"Train, evaluate, and deploy machine learning models",
		"Build data pipelines for model training",
		"Optimize model inference latency and cost",
		"Collaborate with research teams to productionize new techniques",
	},
	"frontend": {
		"Build responsive, accessible user interfaces",
		"Collaborate closely with design on pixel-perfect implementations",
		"Improve frontend performance and bundle size",
		"Maintain and extend the component library",
	},
	"backend": {
		"Design and implement scalable backend services",
		"Own services from design through deployment and monitoring",
		"Optimize database queries and caching strategies",
		"Collaborate with frontend engineers on API contracts",
	},
	"new_grad": {
		"Contribute to team projects with mentorship from senior engineers",
		"Learn the codebase and development practices",
		"Fix bugs and implement small features independently",
		"Grow toward owning larger projects over time",
	},
}

var descriptionTemplates = []string{
	"Join %s as a %s! We're looking for passionate engineers to help us build the next generation of our products. You'll work with cutting-edge technology and brilliant colleagues in a fast-paced, collaborative environment.",
	"%s is hiring a %s to join our growing engineering team. This is an opportunity to make a real impact on products used by millions of people while growing your career alongside world-class engineers.",
	"As a %s at %s, you'll tackle challenging technical problems at scale. We value curiosity, ownership, and craftsmanship, and we invest heavily in the growth of early-career engineers.",
}

// seedJobs 生成 55 个演示职位并落盘,覆盖原有数据
func (p *portal) seedJobs() int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	roleKeys := make([]string, 0, len(roleTemplates))
	for k := range roleTemplates {
		roleKeys = append(roleKeys, k)
	}

	const jobCount = 55
	jobs := make([]JobPosting, 0, jobCount)
	for i := 0; i < jobCount; i++ {
		company := seedCompanies[rng.Intn(len(seedCompanies))]
		roleKey := roleKeys[rng.Intn(len(roleKeys))]
		role := roleTemplates[roleKey]
		title := role.titles[rng.Intn(len(role.titles))]

		skills := pickSkills(rng, role.skillPools, 4+rng.Intn(4))
		benefits := pickStrings(rng, seedBenefits, 4+rng.Intn(3))

		isRemote := rng.Float64() < 0.3
		location := company[1]
		if isRemote {
			location = "Remote"
		}

		posted := time.Now().UTC().AddDate(0, 0, -rng.Intn(30))
		deadline := posted.AddDate(0, 0, 7+rng.Intn(24))

		descTmpl := descriptionTemplates[rng.Intn(len(descriptionTemplates))]
		var description string
		if descTmpl == descriptionTemplates[2] {
			description = fmt.Sprintf(descTmpl, title, company[0])
		} else {
			description = fmt.Sprintf(descTmpl, company[0], title)
		}

		jobs = append(jobs, JobPosting{
			ID:                  uuid.NewString(),
			Title:               title,
			Company:             company[0],
			Location:            location,
			JobType:             role.jobType,
			ExperienceLevel:     role.experienceLevel,
			SalaryRange:         role.salaryRange,
			Description:         description,
			Requirements:        role.requirements,
			Responsibilities:    responsibilityTemplates[roleKey],
			SkillsRequired:      skills,
			Benefits:            benefits,
			PostedDate:          posted.Format("2006-01-02"),
			ApplicationDeadline: deadline.Format("2006-01-02"),
			IsRemote:            isRemote,
			VisaSponsorship:     rng.Float64() < 0.4,
		})
	}

	if err := p.writeJobs(jobs); err != nil {
		p.logger.Printf("写入职位文件失败: %v", err)
		return 0
	}
	return len(jobs)
}

// pickSkills 从角色关联的技能池中抽取不重复的技能
func pickSkills(rng *rand.Rand, pools []string, n int) []string {
	var all []string
	for _, pool := range pools {
		all = append(all, skillPools[pool]...)
	}
	return pickStrings(rng, all, n)
}

func pickStrings(rng *rand.Rand, src []string, n int) []string {
	if n > len(src) {
		n = len(src)
	}
	shuffled := append([]string(nil), src...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}
