package document

// DemoID is the well-known document seeded at startup.
const DemoID = "demo-doc"

const demoContent = `<p><strong>Welcome to the collaborative text editor!</strong></p>
<p>This document demonstrates real-time collaboration:</p>
<ul>
<li><strong>Live editing</strong> - see changes as others type</li>
<li><strong>Presence</strong> - know who else has the document open</li>
<li><strong>Rich formatting</strong> - bold, italic, colors and more</li>
<li><strong>Persistent storage</strong> - documents survive server restarts</li>
</ul>
<p>Open this document in a second browser tab to watch collaboration in action.</p>`

// Demo returns the welcome document.
func Demo() Document {
	return Document{ID: DemoID, Title: "Welcome Document", Content: demoContent}
}
