package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Kind selects one of the fixed notification templates
type Kind string

const (
	KindWelcome      Kind = "WELCOME"
	KindBorrowedBook Kind = "BORROWED_BOOK"
)

// Fields are the values substituted into a template. html/template escapes
// every value, so user input is rendered as plain text only.
type Fields struct {
	Username   string
	Email      string
	BookTitle  string
	Author     string
	BorrowDate string
	DueDate    string
}

type messageTemplate struct {
	subject string
	body    *template.Template
}

const baseStyle = `
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .header { background: #f8f9fa; padding: 20px; text-align: center; }
        .content { padding: 20px; }
        .footer { background: #f8f9fa; padding: 20px; text-align: center; }
        .book-details { background: #f1f1f1; padding: 15px; border-radius: 5px; }`

const welcomeBody = `<!DOCTYPE html>
<html>
<head>
    <style>` + baseStyle + `
    </style>
</head>
<body>
    <div class="header">
        <h1>Welcome to Our Library!</h1>
    </div>
    <div class="content">
        <h2>Hello {{.Username}},</h2>
        <p>Thank you for registering with our library management system. We're excited to have you join us!</p>

        <h3>Your Account Details:</h3>
        <p>Username: {{.Username}}</p>
        <p>Email: {{.Email}}</p>

        <h3>What You Can Do:</h3>
        <ul>
            <li>Borrow and manage books</li>
            <li>Write reviews and ratings</li>
            <li>Participate in forum discussions</li>
            <li>Track your reading history</li>
        </ul>

        <p>To get started, simply log in to your account and explore our collection of books.</p>
        <p>If you have any questions, feel free to contact our support team.</p>
    </div>
    <div class="footer">
        <p>Best regards,<br>Your Library Team</p>
    </div>
</body>
</html>`

const borrowedBookBody = `<!DOCTYPE html>
<html>
<head>
    <style>` + baseStyle + `
    </style>
</head>
<body>
    <div class="header">
        <h1>Borrowed Book Added</h1>
    </div>
    <div class="content">
        <h2>Hello {{.Username}},</h2>
        <p>You've added a new book to your borrowed list:</p>

        <div class="book-details">
            <h3>Book Details:</h3>
            <p><strong>Title:</strong> {{.BookTitle}}</p>
            <p><strong>Author:</strong> {{.Author}}</p>
            <p><strong>Borrow Date:</strong> {{.BorrowDate}}</p>
            <p><strong>Due Date:</strong> {{.DueDate}}</p>
        </div>

        <p>Please remember to return the book by the due date.</p>
        <p>If you have any questions, please contact the library support.</p>
    </div>
    <div class="footer">
        <p>Best regards,<br>Your Library Team</p>
    </div>
</body>
</html>`

var templates = map[Kind]messageTemplate{
	KindWelcome: {
		subject: "Welcome to Our Library!",
		body:    template.Must(template.New("welcome").Option("missingkey=error").Parse(welcomeBody)),
	},
	KindBorrowedBook: {
		subject: "New Borrowed Book Notification",
		body:    template.Must(template.New("borrowed_book").Option("missingkey=error").Parse(borrowedBookBody)),
	},
}

// Render produces the subject and HTML body for kind
func Render(kind Kind, fields Fields) (subject, body string, err error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, fields); err != nil {
		return "", "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return tmpl.subject, buf.String(), nil
}
