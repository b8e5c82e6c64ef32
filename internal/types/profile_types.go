package types

// Profile 学生档案，由简历提取通道产出，ProfileStore 持有
type Profile struct {
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Location       string       `json:"location,omitempty"`
	Links          ProfileLinks `json:"links"`
	Education      []Education  `json:"education,omitempty"`
	Experience     []Experience `json:"experience,omitempty"`
	Skills         []string     `json:"skills,omitempty"`
	Projects       []Project    `json:"projects,omitempty"`
	Certifications []string     `json:"certifications,omitempty"`
	ResumePath     string       `json:"resume_path,omitempty"`
	CreatedAt      string       `json:"created_at,omitempty"`
	UpdatedAt      string       `json:"updated_at,omitempty"`
}

// ProfileLinks 档案中的外部链接
type ProfileLinks struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// Education 一段教育经历
type Education struct {
	School   string `json:"school"`
	Degree   string `json:"degree,omitempty"`
	Major    string `json:"major,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Experience 一段实习/工作经历
type Experience struct {
	Company          string   `json:"company"`
	Title            string   `json:"title"`
	Duration         string   `json:"duration,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// Project 一个项目条目，可作为证据映射中的 Proof 类证据
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}
